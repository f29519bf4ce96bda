package app

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/dshills/plugeval/internal/config"
	"github.com/dshills/plugeval/internal/report"
)

// initReporter builds the reporter for the report section. Text reports go
// to stderr, JSON documents to stdout and screen reports to the terminal.
func (app *Application) initReporter() error {
	cfg := app.config.Report

	switch cfg.Format {
	case config.FormatJSON:
		j := report.NewJSON(app.stdout, isTerminal(app.stdout))
		app.reporter = j
		app.flush = j.Flush

	case config.FormatScreen:
		if !isTerminal(app.stderr) {
			app.logger.Warn("screen reports need a terminal, using text")
			app.reporter = app.console(cfg)
			return nil
		}
		s, err := report.OpenScreen()
		if err != nil {
			return NewComponentError("report", "open screen", err)
		}
		app.reporter = s
		app.release = s.Close

	default:
		app.reporter = app.console(cfg)
	}
	return nil
}

func (app *Application) console(cfg config.ReportConfig) *report.Console {
	return report.NewConsole(app.stderr,
		report.WithColor(useColor(cfg.Color, app.stderr)),
		report.WithFrame(cfg.Frame))
}

// useColor resolves a colour mode against w. Auto enables colour on a
// terminal unless NO_COLOR is set.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		return isTerminal(w)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
