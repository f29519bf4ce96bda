package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

// Console writes reports as text blocks.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
	frame bool

	renderer *lipgloss.Renderer
	labels   map[Severity]*color.Color
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithColor enables or disables ANSI colour.
func WithColor(enabled bool) ConsoleOption {
	return func(c *Console) {
		c.color = enabled
	}
}

// WithFrame draws a border around each report body.
func WithFrame(enabled bool) ConsoleOption {
	return func(c *Console) {
		c.frame = enabled
	}
}

// NewConsole creates a console reporter writing to w. Colour and framing are
// off unless enabled.
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{w: w}
	for _, opt := range opts {
		opt(c)
	}

	c.labels = map[Severity]*color.Color{
		SeverityInfo:    color.New(color.FgCyan, color.Bold),
		SeverityWarning: color.New(color.FgYellow, color.Bold),
		SeverityError:   color.New(color.FgRed, color.Bold),
	}
	for _, l := range c.labels {
		if c.color {
			l.EnableColor()
		} else {
			l.DisableColor()
		}
	}

	c.renderer = lipgloss.NewRenderer(w)
	return c
}

// Show implements Reporter.
func (c *Console) Show(title, body string, severity Severity, host HostContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	label, ok := c.labels[severity]
	if !ok {
		label = c.labels[SeverityError]
	}

	var b strings.Builder
	b.WriteString(label.Sprintf("[%s]", strings.ToUpper(severity.String())))
	b.WriteString(" ")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(c.renderBody(body, severity))
	b.WriteString("\n")

	if _, err := io.WriteString(c.w, b.String()); err != nil {
		return fmt.Errorf("write report %q: %w", title, err)
	}
	return nil
}

func (c *Console) renderBody(body string, severity Severity) string {
	body = strings.TrimRight(body, "\n")
	if !c.frame {
		return body
	}

	style := c.renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	if c.color {
		style = style.BorderForeground(borderColor(severity))
	}
	return style.Render(body)
}

func borderColor(s Severity) lipgloss.Color {
	switch s {
	case SeverityInfo:
		return lipgloss.Color("86")
	case SeverityWarning:
		return lipgloss.Color("214")
	default:
		return lipgloss.Color("196")
	}
}
