package lua

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dshills/plugeval/internal/logging"
	"github.com/dshills/plugeval/internal/script"
	lua "github.com/yuin/gopher-lua"
)

// BackendName is the name reported by Backend.Name.
const BackendName = "lua"

// Backend builds isolated gopher-lua contexts.
type Backend struct {
	// Host modules shared by every context, resolved after the plugin's
	// own search path.
	modules map[string]lua.LGFunction

	// Shared library directories, searched last.
	sharedPaths []string

	// Call stack size for new states.
	callStackSize int
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithModule registers a shared Go module. The loader is invoked once per
// context, the first time a script requires name.
func WithModule(name string, loader lua.LGFunction) BackendOption {
	return func(b *Backend) {
		b.modules[name] = loader
	}
}

// WithSharedPaths sets the shared library directories.
func WithSharedPaths(paths ...string) BackendOption {
	return func(b *Backend) {
		b.sharedPaths = append([]string(nil), paths...)
	}
}

// WithCallStackSize sets the Lua call stack size for new contexts.
func WithCallStackSize(n int) BackendOption {
	return func(b *Backend) {
		b.callStackSize = n
	}
}

// NewBackend creates a Lua backend.
func NewBackend(opts ...BackendOption) *Backend {
	b := &Backend{
		modules:       make(map[string]lua.LGFunction),
		callStackSize: lua.CallStackSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements script.Backend.
func (b *Backend) Name() string {
	return BackendName
}

// NewContext implements script.Backend.
//
// The entry directory must be a readable directory and every classpath
// entry must still exist; anything else is a *script.ContextError.
func (b *Backend) NewContext(spec script.ContextSpec) (script.Context, error) {
	entryDir, err := filepath.Abs(spec.EntryDir)
	if err != nil {
		return nil, &script.ContextError{Path: spec.EntryDir, Err: err}
	}
	if err := checkReadableDir(entryDir); err != nil {
		return nil, err
	}

	classpath := make([]string, 0, len(spec.Classpath))
	for _, entry := range spec.Classpath {
		abs, err := filepath.Abs(entry)
		if err != nil {
			return nil, &script.ContextError{Path: entry, Err: err}
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, &script.ContextError{Path: abs, Err: err}
		}
		classpath = append(classpath, abs)
	}

	stdout := spec.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	logger := spec.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	L := lua.NewState(lua.Options{
		CallStackSize: b.callStackSize,
	})

	c := &Context{
		L:           L,
		pluginID:    spec.PluginID,
		entryDir:    entryDir,
		classpath:   classpath,
		sharedPaths: b.sharedPaths,
		modules:     make(map[string]lua.LGFunction, len(b.modules)+1),
		stdout:      stdout,
		logger:      logger.With("plugin", spec.PluginID),
	}

	c.modules[HostModuleName] = c.openHostModule
	for name, loader := range b.modules {
		c.modules[name] = loader
	}

	c.install()
	return c, nil
}

// checkReadableDir verifies dir is a directory whose listing can be read.
func checkReadableDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return &script.ContextError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return &script.ContextError{Path: dir, Err: fmt.Errorf("%w: not a directory", ErrBadSearchPath)}
	}
	f, err := os.Open(dir)
	if err != nil {
		return &script.ContextError{Path: dir, Err: err}
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && err != io.EOF {
		return &script.ContextError{Path: dir, Err: err}
	}
	return nil
}
