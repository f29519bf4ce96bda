package script

import (
	"errors"
	"fmt"
)

// ErrContextClosed is returned when using a closed context.
var ErrContextClosed = errors.New("script context is closed")

// ContextError reports an I/O failure while building an isolated context.
type ContextError struct {
	Path string
	Err  error
}

func (e *ContextError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ContextError) Unwrap() error {
	return e.Err
}

// CompileError reports a script that failed to parse or compile.
type CompileError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// RuntimeError reports a failure raised while a compiled script was running.
type RuntimeError struct {
	Message string

	// Trace is the backend's stack traceback, if any.
	Trace string

	Err error
}

func (e *RuntimeError) Error() string {
	return e.Message
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// StackTrace returns the message followed by the traceback.
func (e *RuntimeError) StackTrace() string {
	if e.Trace == "" {
		return e.Message
	}
	return e.Message + "\n" + e.Trace
}
