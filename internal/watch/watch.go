// Package watch re-runs plugin evaluation when plugin files change.
//
// A Watcher observes plugin directories with fsnotify, debounces bursts of
// events into one trigger and hands triggers to a RunFunc. Triggers that
// arrive while a run is in progress are coalesced into a single follow-up
// run, so runs never overlap and no change is lost.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/plugeval/internal/logging"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed = errors.New("watcher is closed")
	ErrPathNotExist  = errors.New("path does not exist")
)

// Trigger reasons.
const (
	ReasonInitial = "initial"
	ReasonChange  = "change"
	ReasonSignal  = "signal"
)

// Trigger describes why a run was requested.
type Trigger struct {
	Reason string
	// Paths lists changed files for ReasonChange, sorted.
	Paths []string
}

// RunFunc performs one evaluation run.
type RunFunc func(ctx context.Context, t Trigger) error

// Watcher turns file changes and explicit requests into serialized runs.
type Watcher struct {
	fsw      *fsnotify.Watcher
	run      RunFunc
	debounce time.Duration
	logger   *slog.Logger

	group   singleflight.Group
	pending atomic.Pointer[Trigger]
	wg      sync.WaitGroup
	runs    atomic.Int64

	mu     sync.Mutex
	paths  map[string]bool
	closed bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the watcher waits for events to settle.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher that calls run for every settled trigger.
func New(run RunFunc, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		run:      run,
		debounce: 300 * time.Millisecond,
		logger:   logging.Nop(),
		paths:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add watches path. Directories are watched together with every
// non-hidden sub-directory.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", abs, ErrPathNotExist)
		}
		return err
	}
	if !info.IsDir() {
		return w.watch(abs)
	}

	return filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != abs && ignored(p) {
			return filepath.SkipDir
		}
		return w.watch(p)
	})
}

func (w *Watcher) watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.paths[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w.paths[path] = true
	return nil
}

// WatchedPaths returns the watched paths, sorted.
func (w *Watcher) WatchedPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.paths))
	for p := range w.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Runs returns how many runs have completed.
func (w *Watcher) Runs() int64 {
	return w.runs.Load()
}

// Trigger requests a run without waiting for file events. It is a no-op
// once the watcher is closed.
func (w *Watcher) Trigger(ctx context.Context, t Trigger) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()

	w.pending.Store(&t)
	go func() {
		defer w.wg.Done()
		// A caller that joins an in-flight run loops so a trigger stored
		// after the leader's last check still gets its own run.
		for w.pending.Load() != nil && ctx.Err() == nil {
			_, err, shared := w.group.Do("run", func() (any, error) {
				return nil, w.drain(ctx)
			})
			if err != nil && !shared {
				w.logger.Warn("run failed", "error", err)
			}
		}
	}()
}

// drain runs until no trigger is pending.
func (w *Watcher) drain(ctx context.Context) error {
	var errs []error
	for ctx.Err() == nil {
		t := w.pending.Swap(nil)
		if t == nil {
			return errors.Join(errs...)
		}
		w.logger.Debug("run triggered", "reason", t.Reason, "paths", len(t.Paths))
		if err := w.run(ctx, *t); err != nil {
			errs = append(errs, err)
		}
		w.runs.Add(1)
	}
	return errors.Join(errs...)
}

// Run processes file events until ctx is cancelled, then closes the
// watcher and waits for the current run to finish.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		changed = make(map[string]bool)
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.Add(ev.Name); err != nil {
						w.logger.Warn("watch new directory", "path", ev.Name, "error", err)
					}
				}
			}
			changed[ev.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			paths := make([]string, 0, len(changed))
			for p := range changed {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(changed)
			w.Trigger(ctx, Trigger{Reason: ReasonChange, Paths: paths})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// relevant filters out chmod-only events and hidden or editor temp files.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	return !ignored(ev.Name)
}

func (w *Watcher) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.fsw.Close()
	w.wg.Wait()
}

// Close stops watching. It is only needed when Run was never called.
func (w *Watcher) Close() error {
	w.close()
	return nil
}

// ignored reports hidden paths and editor backup or swap files.
func ignored(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".tmp")
}
