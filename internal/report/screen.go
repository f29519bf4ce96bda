package report

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Screen shows each report as a full-screen pager and waits for the user to
// dismiss it. Arrow keys and PgUp/PgDn scroll; q, Esc or Enter dismiss.
type Screen struct {
	mu     sync.Mutex
	screen tcell.Screen
	owned  bool
}

// NewScreen creates a pager on an initialized tcell screen. The caller keeps
// ownership of the screen.
func NewScreen(screen tcell.Screen) *Screen {
	return &Screen{screen: screen}
}

// OpenScreen initializes the process terminal and returns a pager that owns
// it. Close restores the terminal.
func OpenScreen() (*Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	return &Screen{screen: screen, owned: true}, nil
}

// Close releases the terminal if the pager owns it.
func (s *Screen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.owned && s.screen != nil {
		s.screen.Fini()
		s.screen = nil
	}
	return nil
}

// Show implements Reporter. It blocks until the report is dismissed.
func (s *Screen) Show(title, body string, severity Severity, host HostContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.screen == nil {
		return fmt.Errorf("show %q: screen closed", title)
	}

	lines := strings.Split(strings.ReplaceAll(body, "\t", "    "), "\n")
	offset := 0

	for {
		s.draw(title, lines, offset, severity)

		ev := s.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			s.screen.Sync()
		case *tcell.EventKey:
			_, height := s.screen.Size()
			page := max(height-2, 1)
			maxOffset := max(len(lines)-page, 0)

			switch ev.Key() {
			case tcell.KeyEnter, tcell.KeyEscape:
				return nil
			case tcell.KeyRune:
				if ev.Rune() == 'q' {
					return nil
				}
			case tcell.KeyDown:
				offset = min(offset+1, maxOffset)
			case tcell.KeyUp:
				offset = max(offset-1, 0)
			case tcell.KeyPgDn:
				offset = min(offset+page, maxOffset)
			case tcell.KeyPgUp:
				offset = max(offset-page, 0)
			}
		}
	}
}

// draw renders the title bar, the visible body lines and a footer.
func (s *Screen) draw(title string, lines []string, offset int, severity Severity) {
	width, height := s.screen.Size()
	s.screen.Clear()

	titleStyle := tcell.StyleDefault.Bold(true).Reverse(true)
	if severity == SeverityError {
		titleStyle = titleStyle.Foreground(tcell.ColorRed)
	}
	header := fmt.Sprintf(" %s: %s ", strings.ToUpper(severity.String()), title)
	s.fillRow(0, width, titleStyle)
	s.putString(0, 0, width, header, titleStyle)

	bodyStyle := tcell.StyleDefault
	for row := 1; row < height-1; row++ {
		i := offset + row - 1
		if i >= len(lines) {
			break
		}
		s.putString(0, row, width, lines[i], bodyStyle)
	}

	if height > 1 {
		footerStyle := tcell.StyleDefault.Dim(true)
		s.putString(0, height-1, width, "q/Enter: close  Up/Down/PgUp/PgDn: scroll", footerStyle)
	}

	s.screen.Show()
}

func (s *Screen) fillRow(y, width int, style tcell.Style) {
	for x := 0; x < width; x++ {
		s.screen.SetContent(x, y, ' ', nil, style)
	}
}

func (s *Screen) putString(x, y, width int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= width {
			return
		}
		s.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
