// Package report displays the outcome of an evaluation run.
//
// The engine hands each aggregate to a Reporter exactly once: one report
// titled "Loading errors" for every loading error of the run, then one report
// per plugin whose script failed while running. Reporters decide how that
// text reaches the user.
package report

import (
	"errors"
	"sync"
)

// Severity classifies a report.
type Severity int

// Severities.
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// HostContext carries host details a reporter may attach to its output.
// Reporters that have no use for it ignore it.
type HostContext struct {
	RunID   string `json:"run_id,omitempty"`
	Trigger string `json:"trigger,omitempty"`
	Workdir string `json:"workdir,omitempty"`
}

// Reporter is a display sink for run reports.
type Reporter interface {
	Show(title, body string, severity Severity, host HostContext) error
}

// Func adapts a function to the Reporter interface.
type Func func(title, body string, severity Severity, host HostContext) error

// Show implements Reporter.
func (f Func) Show(title, body string, severity Severity, host HostContext) error {
	return f(title, body, severity, host)
}

// Report is one recorded Show call.
type Report struct {
	Title    string
	Body     string
	Severity Severity
	Host     HostContext
}

// Recorder keeps every report in memory.
type Recorder struct {
	mu      sync.Mutex
	reports []Report
}

// Show implements Reporter.
func (r *Recorder) Show(title, body string, severity Severity, host HostContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, Report{Title: title, Body: body, Severity: severity, Host: host})
	return nil
}

// Reports returns a copy of the recorded reports in call order.
func (r *Recorder) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Reset discards recorded reports.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = nil
}

// Multi sends every report to each reporter in order. All reporters are
// called even if one fails.
type Multi []Reporter

// Show implements Reporter.
func (m Multi) Show(title, body string, severity Severity, host HostContext) error {
	var errs []error
	for _, r := range m {
		if err := r.Show(title, body, severity, host); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
