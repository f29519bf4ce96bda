package eval

import (
	"fmt"
	"strings"
)

// LoadingError is a failure that happened before a plugin's script ran.
type LoadingError struct {
	PluginID string `json:"plugin_id"`
	Message  string `json:"message"`
}

// String renders the error the way it is shown to users.
func (e LoadingError) String() string {
	return fmt.Sprintf("Plugin: %s. %s", e.PluginID, e.Message)
}

// EvaluationFailure is an error raised while a plugin's script ran.
type EvaluationFailure struct {
	PluginID string
	Err      error
	// Trace is the raw stack trace text captured with Err.
	Trace string
}

// Aggregator collects the failures of one run. It is not safe for
// concurrent use; a run owns its aggregator exclusively.
type Aggregator struct {
	loading  []LoadingError
	failures []EvaluationFailure
	index    map[string]int
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{index: make(map[string]int)}
}

// AddLoadingError appends a loading error for pluginID.
func (a *Aggregator) AddLoadingError(pluginID, message string) {
	a.loading = append(a.loading, LoadingError{PluginID: pluginID, Message: message})
}

// PutFailure records the evaluation failure of pluginID. A second put for
// the same plugin replaces the cause and keeps the original position.
func (a *Aggregator) PutFailure(pluginID string, err error, trace string) {
	f := EvaluationFailure{PluginID: pluginID, Err: err, Trace: trace}
	if i, ok := a.index[pluginID]; ok {
		a.failures[i] = f
		return
	}
	a.index[pluginID] = len(a.failures)
	a.failures = append(a.failures, f)
}

// LoadingErrors returns the loading errors in insertion order.
func (a *Aggregator) LoadingErrors() []LoadingError {
	out := make([]LoadingError, len(a.loading))
	copy(out, a.loading)
	return out
}

// Failures returns the evaluation failures in first-insertion order.
func (a *Aggregator) Failures() []EvaluationFailure {
	out := make([]EvaluationFailure, len(a.failures))
	copy(out, a.failures)
	return out
}

// Failure returns the evaluation failure recorded for pluginID.
func (a *Aggregator) Failure(pluginID string) (EvaluationFailure, bool) {
	i, ok := a.index[pluginID]
	if !ok {
		return EvaluationFailure{}, false
	}
	return a.failures[i], true
}

// Empty reports whether nothing has been collected.
func (a *Aggregator) Empty() bool {
	return len(a.loading) == 0 && len(a.failures) == 0
}

// LoadingReport joins loading errors into one report body, one per line.
func LoadingReport(errs []LoadingError) string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

// NormalizeTrace makes a captured stack trace readable: line endings become
// \n, tabs become four spaces, trailing blanks are trimmed from every line
// and blank lines at either end are dropped.
func NormalizeTrace(trace string) string {
	trace = strings.ReplaceAll(trace, "\r\n", "\n")
	trace = strings.ReplaceAll(trace, "\r", "\n")
	trace = strings.ReplaceAll(trace, "\t", "    ")

	lines := strings.Split(trace, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \f\v")
	}

	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
