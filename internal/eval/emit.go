package eval

import (
	"errors"
	"fmt"

	"github.com/dshills/plugeval/internal/report"
)

// LoadingErrorsTitle is the title of the aggregated loading error report.
const LoadingErrorsTitle = "Loading errors"

// Emit shows the result's aggregates on r: one report for all loading
// errors, if any, then one report per evaluation failure titled with the
// plugin id. Nothing is shown for a clean result. Every report is attempted
// even if an earlier one fails.
func Emit(result *Result, r report.Reporter, host report.HostContext) error {
	var errs []error

	if len(result.LoadingErrors) > 0 {
		body := LoadingReport(result.LoadingErrors)
		if err := r.Show(LoadingErrorsTitle, body, report.SeverityError, host); err != nil {
			errs = append(errs, fmt.Errorf("show loading errors: %w", err))
		}
	}

	for _, f := range result.Failures {
		if err := r.Show(f.PluginID, failureText(f), report.SeverityError, host); err != nil {
			errs = append(errs, fmt.Errorf("show failure of %s: %w", f.PluginID, err))
		}
	}

	return errors.Join(errs...)
}

// failureText is the normalized trace, or the error text if no trace was
// captured.
func failureText(f EvaluationFailure) string {
	if f.Trace != "" {
		return NormalizeTrace(f.Trace)
	}
	if f.Err != nil {
		return NormalizeTrace(f.Err.Error())
	}
	return ""
}
