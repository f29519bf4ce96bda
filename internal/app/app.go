// Package app wires configuration, logging, the plugin registry, the
// evaluation engine and the reporters into the plugeval application.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dshills/plugeval/internal/config"
	"github.com/dshills/plugeval/internal/eval"
	"github.com/dshills/plugeval/internal/logging"
	"github.com/dshills/plugeval/internal/registry"
	"github.com/dshills/plugeval/internal/report"
	"github.com/dshills/plugeval/internal/script/lua"
)

// Application is the central coordinator for one plugeval invocation.
type Application struct {
	mu sync.Mutex

	config   *config.Config
	logger   *slog.Logger
	log      *logging.Logger
	registry registry.Registry
	engine   *eval.Engine
	reporter report.Reporter
	flush    func() error
	release  func() error
	metrics  *Metrics

	workdir string
	args    []string
	stdout  io.Writer
	stderr  io.Writer
	closed  bool
}

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty means $PLUGEVAL_CONFIG
	// or the user config directory.
	ConfigPath string

	// Config, when set, is used as is instead of loading ConfigPath.
	Config *config.Config

	// Override adjusts the loaded configuration, typically from flags.
	Override func(*config.Config)

	// Workdir is the working directory reported to plugins. Defaults to
	// the process working directory.
	Workdir string

	// Args are passed to plugins through the event.
	Args []string

	// Stdout receives plugin output and JSON reports. Stderr receives
	// text reports. Both default to the process streams.
	Stdout io.Writer
	Stderr io.Writer

	// Logger replaces the logger built from the logging section.
	Logger *slog.Logger

	// Reporter replaces the reporter built from the report section.
	Reporter report.Reporter
}

// New loads configuration and builds every component.
func New(opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return nil, NewComponentError("config", "load", err)
		}
	}
	if opts.Override != nil {
		opts.Override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, NewComponentError("config", "validate", err)
		}
	}

	app := &Application{
		config:  cfg,
		metrics: NewMetrics(),
		workdir: opts.Workdir,
		args:    opts.Args,
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.workdir == "" {
		app.workdir, _ = os.Getwd()
	}

	if err := app.initLogging(opts.Logger); err != nil {
		return nil, err
	}
	app.registry = newRegistry(cfg.Plugins)
	app.engine = eval.NewEngine(
		lua.NewBackend(
			lua.WithSharedPaths(cfg.Engine.SharedPaths...),
			lua.WithCallStackSize(cfg.Engine.CallStackSize),
		),
		eval.WithEntryScript(cfg.Engine.EntryScript),
		eval.WithDirective(cfg.Engine.Directive),
		eval.WithLogger(logging.WithComponent(app.logger, "eval")),
		eval.WithStdout(app.stdout),
	)

	if opts.Reporter != nil {
		app.reporter = opts.Reporter
	} else if err := app.initReporter(); err != nil {
		app.log.Close()
		return nil, err
	}

	app.logger.Debug("application ready",
		"config", cfg.Path,
		"registry", describeRegistry(app.registry),
		"report", cfg.Report.Format)
	return app, nil
}

func (app *Application) initLogging(override *slog.Logger) error {
	if override != nil {
		app.logger = override
		app.log = &logging.Logger{Logger: override}
		return nil
	}

	l, err := logging.New(logging.Config{
		Level:   app.config.Logging.Level,
		Format:  app.config.Logging.Format,
		Outputs: app.config.Logging.Outputs,
	})
	if err != nil {
		return NewComponentError("logging", "open outputs", err)
	}
	app.log = l
	app.logger = l.Logger
	return nil
}

// newRegistry selects the YAML registry when one is configured and the
// plugin directories otherwise.
func newRegistry(cfg config.PluginsConfig) registry.Registry {
	if cfg.Registry != "" {
		return registry.NewFileRegistry(cfg.Registry)
	}
	if len(cfg.Roots) > 0 {
		return registry.NewDirRegistry(registry.WithRoots(cfg.Roots...))
	}
	return registry.NewDirRegistry()
}

func describeRegistry(r registry.Registry) string {
	switch r := r.(type) {
	case *registry.FileRegistry:
		return r.Path()
	case *registry.DirRegistry:
		return "dirs"
	default:
		return "custom"
	}
}

// Config returns the effective configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Registry returns the plugin registry.
func (app *Application) Registry() registry.Registry {
	return app.registry
}

// Metrics returns the run metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}

// Plugins lists the registered plugins.
func (app *Application) Plugins() ([]registry.Descriptor, error) {
	ds, err := app.registry.List()
	if err != nil {
		return nil, NewComponentError("registry", "list", err)
	}
	return ds, nil
}

// Evaluate runs every plugin once and shows the result. The error is
// non-nil when the run could not complete, when reporting failed, or,
// wrapping ErrPluginsFailed, when any plugin failed.
func (app *Application) Evaluate(ctx context.Context, trigger string) (*eval.Result, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.closed {
		return nil, ErrClosed
	}

	ev := eval.NewEvent(trigger, app.workdir, app.args...)
	start := time.Now()
	result, runErr := app.engine.Run(ctx, app.registry, ev)
	app.metrics.RecordRun(time.Since(start), result)

	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	if err := eval.Emit(result, app.reporter, result.Host()); err != nil {
		errs = append(errs, NewComponentError("report", "show", err))
	}
	if app.flush != nil {
		if err := app.flush(); err != nil {
			errs = append(errs, NewComponentError("report", "flush", err))
		}
	}
	if runErr == nil && !result.OK() {
		errs = append(errs, ErrPluginsFailed)
	}

	app.logger.Info("run finished",
		"run", result.RunID,
		"trigger", trigger,
		"plugins", len(result.Plugins),
		"loading_errors", len(result.LoadingErrors),
		"failures", len(result.Failures),
		"elapsed", time.Since(start))

	return result, errors.Join(errs...)
}

// Shutdown releases the terminal and log files. It is safe to call more
// than once.
func (app *Application) Shutdown() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.closed {
		return nil
	}
	app.closed = true

	var errs []error
	if app.release != nil {
		errs = append(errs, app.release())
	}
	if app.log != nil {
		errs = append(errs, app.log.Close())
	}
	return errors.Join(errs...)
}
