package lua

import "errors"

// Errors for Lua contexts.
var (
	// ErrBadSearchPath is returned when a search path element is unusable.
	ErrBadSearchPath = errors.New("invalid search path element")

	// ErrForeignExecutable is returned when running an executable that was
	// not compiled by this backend.
	ErrForeignExecutable = errors.New("executable was not compiled by the lua backend")
)
