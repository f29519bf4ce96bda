package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/plugeval/internal/logging"
	"github.com/dshills/plugeval/internal/registry"
	"github.com/dshills/plugeval/internal/watch"
)

// Watch evaluates the plugins once, then again whenever a plugin file
// changes or a value arrives on rerun. It returns when ctx is cancelled.
// Failed runs are reported and do not stop watching.
func (app *Application) Watch(ctx context.Context, rerun <-chan struct{}) error {
	log := logging.WithComponent(app.logger, "watch")

	w, err := watch.New(func(ctx context.Context, t watch.Trigger) error {
		if len(t.Paths) > 0 {
			log.Info("plugin files changed", "paths", t.Paths)
		}
		_, err := app.Evaluate(ctx, "watch:"+t.Reason)
		if errors.Is(err, ErrPluginsFailed) {
			return nil
		}
		return err
	},
		watch.WithDebounce(time.Duration(app.config.Watch.DebounceMS)*time.Millisecond),
		watch.WithLogger(log),
	)
	if err != nil {
		return NewComponentError("watch", "start", err)
	}

	added := 0
	for _, p := range app.watchPaths() {
		if err := w.Add(p); err != nil {
			if errors.Is(err, watch.ErrPathNotExist) {
				log.Debug("skip missing path", "path", p)
				continue
			}
			w.Close()
			return NewComponentError("watch", "add "+p, err)
		}
		added++
	}
	if added == 0 {
		w.Close()
		return ErrNothingToWatch
	}
	log.Info("watching", "paths", len(w.WatchedPaths()))

	w.Trigger(ctx, watch.Trigger{Reason: watch.ReasonInitial})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-rerun:
				if !ok {
					return
				}
				w.Trigger(ctx, watch.Trigger{Reason: watch.ReasonSignal})
			}
		}
	}()

	return w.Run(ctx)
}

// watchPaths lists what watch mode observes: the plugin roots, or the
// registry file together with every registered plugin root and the shared
// library directories.
func (app *Application) watchPaths() []string {
	var paths []string
	switch r := app.registry.(type) {
	case *registry.DirRegistry:
		paths = append(paths, r.Roots()...)
	case *registry.FileRegistry:
		paths = append(paths, r.Path())
		if ds, err := r.List(); err == nil {
			for _, d := range ds {
				paths = append(paths, d.Root)
			}
		}
	}
	paths = append(paths, app.config.Engine.SharedPaths...)

	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil || seen[abs] {
			continue
		}
		if _, err := os.Stat(abs); err != nil && !os.IsNotExist(err) {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	return out
}
