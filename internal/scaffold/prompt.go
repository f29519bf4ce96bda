package scaffold

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// LinePrompter reads names line by line from a reader. End of input
// cancels.
type LinePrompter struct {
	in    *bufio.Reader
	out   io.Writer
	errfn func(format string, a ...any) string
}

// NewLinePrompter prompts on out and reads answers from in.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		in:    bufio.NewReader(in),
		out:   out,
		errfn: color.New(color.FgRed, color.Bold).SprintfFunc(),
	}
}

// AskName implements Prompter.
func (p *LinePrompter) AskName(kind Kind) (string, bool, error) {
	fmt.Fprintf(p.out, "New %s file name: ", kind)
	line, err := p.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		if line == "" {
			fmt.Fprintln(p.out)
			return "", false, nil
		}
		err = nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}

// ShowError implements Prompter.
func (p *LinePrompter) ShowError(message string) {
	fmt.Fprintln(p.out, p.errfn("error:"), message)
}

// StaticPrompter answers once with a fixed name and cancels afterwards.
// Errors are written to Out when it is set.
type StaticPrompter struct {
	Name string
	Out  io.Writer

	asked  bool
	errors []string
}

// AskName implements Prompter.
func (p *StaticPrompter) AskName(Kind) (string, bool, error) {
	if p.asked {
		return "", false, nil
	}
	p.asked = true
	return p.Name, true, nil
}

// ShowError implements Prompter.
func (p *StaticPrompter) ShowError(message string) {
	p.errors = append(p.errors, message)
	if p.Out != nil {
		fmt.Fprintln(p.Out, message)
	}
}

// Errors returns the messages shown so far.
func (p *StaticPrompter) Errors() []string {
	return append([]string(nil), p.errors...)
}
