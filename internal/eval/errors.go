package eval

import (
	"errors"
	"fmt"
)

// Evaluation errors.
var (
	// ErrEntryScriptNotFound is returned when a plugin root holds no entry script.
	ErrEntryScriptNotFound = errors.New("entry script not found")

	// ErrMultipleEntryScripts is returned when a plugin root holds more than
	// one entry script.
	ErrMultipleEntryScripts = errors.New("multiple entry scripts")

	// ErrDependencyMissing is returned for a classpath directive naming a
	// path that does not exist.
	ErrDependencyMissing = errors.New("dependency not found")
)

// FatalError aborts one plugin outside the loading error channel.
type FatalError struct {
	PluginID string
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("plugin %s: %v", e.PluginID, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// MissingDependencyError reports a classpath directive whose path does not
// exist.
type MissingDependencyError struct {
	// Expr is the directive expression as written.
	Expr string
	// Path is the absolute path it resolved to.
	Path string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("dependency %q not found at %s", e.Expr, e.Path)
}

// Is reports ErrDependencyMissing as a match.
func (e *MissingDependencyError) Is(target error) bool {
	return target == ErrDependencyMissing
}

// DependencyError reports a classpath directive whose path exists but could
// not be examined, such as a symlink loop or an unreadable directory.
type DependencyError struct {
	// Line is the directive's line in the entry script, starting at 1.
	Line int
	// Expr is the directive expression as written.
	Expr string
	Err  error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("line %d: dependency %q: %v", e.Line, e.Expr, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}
