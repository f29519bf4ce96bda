// Package script defines the capability a scripting backend provides to the
// evaluation engine.
//
// A Backend builds one isolated Context per plugin per run. The context owns
// the plugin's search path (entry directory first, then its resolved
// classpath entries) and falls back to the host's shared environment for
// anything the plugin does not provide itself. Within a context a script is
// compiled once and run once:
//
//	ctx, err := backend.NewContext(script.ContextSpec{...})
//	exe, err := ctx.Compile(path, src)   // *CompileError on failure
//	err = ctx.Run(runCtx, exe, binding)  // *RuntimeError on failure
//	ctx.Close()
//
// The engine never looks inside an Executable; it is opaque backend state.
package script

import (
	"context"
	"io"
	"log/slog"
)

// Binding maps global names to the values a script sees when it runs.
// Two names bound to the same Go value resolve to the same script value.
type Binding map[string]any

// Executable is a compiled script, owned by the Context that produced it.
type Executable interface {
	// Name is the chunk name used in stack traces.
	Name() string
}

// ContextSpec describes the isolated context to build for one plugin.
type ContextSpec struct {
	// PluginID identifies the plugin in logs and host modules.
	PluginID string

	// EntryDir is the directory containing the entry script. It is the
	// first search path element and the resource root.
	EntryDir string

	// Classpath lists resolved dependency files in encounter order.
	Classpath []string

	// Stdout receives script print output. Defaults to io.Discard.
	Stdout io.Writer

	// Logger receives host.log calls. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Context is a per-plugin, per-run isolated execution scope.
type Context interface {
	// Compile parses and compiles the script source. Failures are
	// returned as *CompileError.
	Compile(path string, src []byte) (Executable, error)

	// Run executes a compiled script with the given binding. Failures
	// raised while running are returned as *RuntimeError.
	Run(ctx context.Context, exe Executable, binding Binding) error

	// SearchPath reports the effective search path, entry directory first.
	SearchPath() []string

	// Close releases the context. It is safe to call more than once.
	Close() error
}

// Backend creates isolated contexts for one scripting language.
type Backend interface {
	// Name identifies the backend (for example "lua").
	Name() string

	// NewContext builds a fresh isolated context. I/O failures while
	// establishing it are returned as *ContextError.
	NewContext(spec ContextSpec) (Context, error)
}
