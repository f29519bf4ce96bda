package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrClosed indicates the application was already shut down.
	ErrClosed = errors.New("application closed")

	// ErrNothingToWatch indicates watch mode found no existing path.
	ErrNothingToWatch = errors.New("no plugin path to watch")

	// ErrPluginsFailed indicates a run finished with loading errors or
	// evaluation failures.
	ErrPluginsFailed = errors.New("plugins failed")
)

// ComponentError represents an error from a specific component.
type ComponentError struct {
	Component string // Component name (e.g., "logging", "registry", "report")
	Action    string // Action being performed
	Err       error  // Underlying error
}

// NewComponentError creates a new ComponentError.
func NewComponentError(component, action string, err error) *ComponentError {
	return &ComponentError{
		Component: component,
		Action:    action,
		Err:       err,
	}
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Component
	if e.Action != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Action)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
