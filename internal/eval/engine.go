package eval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/dshills/plugeval/internal/logging"
	"github.com/dshills/plugeval/internal/registry"
	"github.com/dshills/plugeval/internal/report"
	"github.com/dshills/plugeval/internal/script"
)

// DefaultEntryScript is the file name of a plugin's entry script.
const DefaultEntryScript = "plugin.lua"

// Flusher brings host state up to date before a run touches any plugin.
type Flusher interface {
	Flush(ctx context.Context) error
}

// FlusherFunc adapts a function to the Flusher interface.
type FlusherFunc func(ctx context.Context) error

// Flush implements Flusher.
func (f FlusherFunc) Flush(ctx context.Context) error {
	return f(ctx)
}

// Outcome is the terminal state of one plugin in a run.
type Outcome struct {
	PluginID string `json:"plugin_id"`
	State    State  `json:"state"`
}

// Result is everything a run produced. It is complete even when Run returns
// an error.
type Result struct {
	RunID         string
	Event         *Event
	Plugins       []Outcome
	LoadingErrors []LoadingError
	Failures      []EvaluationFailure
	Fatal         []*FatalError
}

// OK reports whether every plugin succeeded.
func (r *Result) OK() bool {
	return len(r.LoadingErrors) == 0 && len(r.Failures) == 0 && len(r.Fatal) == 0
}

// Host returns the report context describing this run.
func (r *Result) Host() report.HostContext {
	h := report.HostContext{RunID: r.RunID}
	if r.Event != nil {
		h.Trigger = r.Event.Trigger
		h.Workdir = r.Event.Workdir
	}
	return h
}

// Engine evaluates plugins. An Engine holds configuration only; every call
// to Run builds its own aggregator and contexts, so successive runs share no
// state.
type Engine struct {
	backend   script.Backend
	entryName string
	resolver  *Resolver
	flusher   Flusher
	logger    *slog.Logger
	stdout    io.Writer
}

// Option configures an Engine.
type Option func(*Engine)

// WithEntryScript sets the entry script file name.
func WithEntryScript(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.entryName = name
		}
	}
}

// WithDirective sets the classpath directive sentinel.
func WithDirective(sentinel string) Option {
	return func(e *Engine) {
		e.resolver = NewResolver(sentinel)
	}
}

// WithFlusher sets the hook run before any plugin is touched.
func WithFlusher(f Flusher) Option {
	return func(e *Engine) {
		e.flusher = f
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStdout sets where script print output goes.
func WithStdout(w io.Writer) Option {
	return func(e *Engine) {
		e.stdout = w
	}
}

// NewEngine creates an engine running plugins on backend.
func NewEngine(backend script.Backend, opts ...Option) *Engine {
	e := &Engine{
		backend:   backend,
		entryName: DefaultEntryScript,
		resolver:  NewResolver(DefaultDirective),
		logger:    logging.Nop(),
		stdout:    io.Discard,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// EntryScript returns the configured entry script name.
func (e *Engine) EntryScript() string {
	return e.entryName
}

// run is the state owned by one Run call.
type run struct {
	id    string
	event *Event
	agg   *Aggregator
	fatal []*FatalError
	log   *slog.Logger
}

// Run evaluates every plugin in reg, in order.
//
// The returned error is non-nil when the flusher fails, when the registry
// cannot be listed, or when at least one plugin had several entry scripts;
// in the last case it joins the *FatalError of each such plugin. Loading
// errors and evaluation failures are reported through the Result only.
func (e *Engine) Run(ctx context.Context, reg registry.Registry, ev *Event) (*Result, error) {
	if ev == nil {
		ev = NewEvent("", "")
	}

	r := &run{
		id:    uuid.NewString(),
		event: ev,
		agg:   NewAggregator(),
	}
	r.log = e.logger.With("run", r.id)
	result := &Result{RunID: r.id, Event: ev}

	if e.flusher != nil {
		if err := e.flusher.Flush(ctx); err != nil {
			return result, fmt.Errorf("flush host state: %w", err)
		}
	}

	plugins, err := reg.List()
	if err != nil {
		return result, fmt.Errorf("list plugins: %w", err)
	}

	r.log.Debug("run started", "plugins", len(plugins), "trigger", ev.Trigger)
	for _, d := range plugins {
		state := e.evaluate(ctx, r, d)
		result.Plugins = append(result.Plugins, Outcome{PluginID: d.ID, State: state})
	}

	result.LoadingErrors = r.agg.LoadingErrors()
	result.Failures = r.agg.Failures()
	result.Fatal = r.fatal

	r.log.Debug("run finished",
		"loading_errors", len(result.LoadingErrors),
		"failures", len(result.Failures),
		"fatal", len(result.Fatal))

	if len(r.fatal) > 0 {
		errs := make([]error, len(r.fatal))
		for i, f := range r.fatal {
			errs[i] = f
		}
		return result, errors.Join(errs...)
	}
	return result, nil
}

// evaluate drives one plugin through its states and returns the terminal one.
func (e *Engine) evaluate(ctx context.Context, r *run, d registry.Descriptor) State {
	log := r.log.With("plugin", d.ID)
	enter := func(s State) State {
		log.Debug("plugin state", "state", s.String())
		return s
	}
	loadingError := func(s State, msg string) State {
		r.agg.AddLoadingError(d.ID, msg)
		log.Warn("plugin not loaded", "state", s.String(), "error", msg)
		return enter(s)
	}

	enter(StateDiscovering)
	entry, err := LocateEntryScript(d.Root, e.entryName)
	switch {
	case errors.Is(err, ErrMultipleEntryScripts):
		r.fatal = append(r.fatal, &FatalError{PluginID: d.ID, Err: err})
		log.Error("plugin aborted", "error", err)
		return enter(StateDiscoveryFatal)
	case errors.Is(err, ErrEntryScriptNotFound):
		return loadingError(StateDiscoveryFailed, "Couldn't find main script")
	case err != nil:
		return loadingError(StateDiscoveryFailed, "Error while looking for main script. "+err.Error())
	}
	enter(StateResolved)

	enter(StateDependencyResolving)
	classpath, problems, err := e.resolver.Resolve(entry)
	if err != nil {
		return loadingError(StateLoadingErrorsPresent,
			fmt.Sprintf("Error while looking for dependencies. Main script: %s. %v", entry.Path, err))
	}
	if len(problems) > 0 {
		for _, p := range problems {
			r.agg.AddLoadingError(d.ID, dependencyMessage(entry.Path, p))
		}
		log.Warn("plugin not loaded", "state", StateLoadingErrorsPresent.String(), "problems", len(problems))
		return enter(StateLoadingErrorsPresent)
	}

	sc, err := e.backend.NewContext(script.ContextSpec{
		PluginID:  d.ID,
		EntryDir:  entry.Dir,
		Classpath: classpath,
		Stdout:    e.stdout,
		Logger:    log,
	})
	if err != nil {
		return loadingError(StateLoaderFailed, "Error while creating scripting engine. "+err.Error())
	}
	defer sc.Close()
	enter(StateLoaderReady)

	enter(StateCompiling)
	src, err := os.ReadFile(entry.Path)
	if err != nil {
		return loadingError(StateCompileFailed, "Error while compiling script. "+err.Error())
	}
	exe, err := sc.Compile(entry.Path, src)
	if err != nil {
		return loadingError(StateCompileFailed, "Error while compiling script. "+err.Error())
	}
	enter(StateCompiled)

	enter(StateRunning)
	binding := script.Binding{
		BindingEvent:       r.event,
		BindingActionEvent: r.event,
	}
	if err := sc.Run(ctx, exe, binding); err != nil {
		r.agg.PutFailure(d.ID, err, traceOf(err))
		log.Warn("plugin failed", "error", err)
		return enter(StateRuntimeFailed)
	}
	return enter(StateSucceeded)
}

// dependencyMessage renders a resolver problem as a loading error message.
func dependencyMessage(entryPath string, err error) string {
	var missing *MissingDependencyError
	if errors.As(err, &missing) {
		return fmt.Sprintf("Couldn't find dependency '%s'", missing.Expr)
	}
	return fmt.Sprintf("Error while looking for dependencies. Main script: %s. %v", entryPath, err)
}

// traceOf returns the full captured trace of a run failure.
func traceOf(err error) string {
	var rt *script.RuntimeError
	if errors.As(err, &rt) {
		return rt.StackTrace()
	}
	return err.Error()
}
