package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/plugeval/internal/config"
	"github.com/dshills/plugeval/internal/eval"
	"github.com/dshills/plugeval/internal/logging"
	"github.com/dshills/plugeval/internal/registry"
	"github.com/dshills/plugeval/internal/report"
)

func writePlugin(t *testing.T, root, id, src string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plugin.lua"), []byte(src), 0644))
}

type fixture struct {
	root   string
	stdout bytes.Buffer
	stderr bytes.Buffer
	rec    report.Recorder
}

func newFixture(t *testing.T) *fixture {
	return &fixture{root: t.TempDir()}
}

func (f *fixture) options(mutate func(*config.Config)) Options {
	cfg := config.Default()
	cfg.Plugins.Roots = []string{f.root}
	if mutate != nil {
		mutate(cfg)
	}
	return Options{
		Config:  cfg,
		Workdir: f.root,
		Args:    []string{"--flag"},
		Stdout:  &f.stdout,
		Stderr:  &f.stderr,
		Logger:  logging.Nop(),
	}
}

func (f *fixture) newApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()
	opts := f.options(mutate)
	opts.Reporter = &f.rec
	a, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { a.Shutdown() })
	return a
}

func TestEvaluateCleanRun(t *testing.T) {
	f := newFixture(t)
	writePlugin(t, f.root, "hello", `print("hello from " .. event.trigger .. " " .. event.args[1])`)

	a := f.newApp(t, nil)
	result, err := a.Evaluate(context.Background(), "manual")
	require.NoError(t, err)

	assert.True(t, result.OK())
	assert.Equal(t, "hello from manual --flag\n", f.stdout.String())
	assert.Empty(t, f.rec.Reports())
	assert.Equal(t, uint64(1), a.Metrics().Snapshot().RunCount)
	assert.Equal(t, uint64(1), a.Metrics().Snapshot().States[eval.StateSucceeded])
}

func TestEvaluateReportsFailures(t *testing.T) {
	f := newFixture(t)
	writePlugin(t, f.root, "a_ok", `local x = 1`)
	writePlugin(t, f.root, "b_throws", `error("nope")`)
	require.NoError(t, os.MkdirAll(filepath.Join(f.root, "c_empty"), 0755))

	a := f.newApp(t, nil)
	result, err := a.Evaluate(context.Background(), "manual")
	require.ErrorIs(t, err, ErrPluginsFailed)
	require.NotNil(t, result)

	reports := f.rec.Reports()
	require.Len(t, reports, 2)
	assert.Equal(t, eval.LoadingErrorsTitle, reports[0].Title)
	assert.Equal(t, "Plugin: c_empty. Couldn't find main script", reports[0].Body)
	assert.Equal(t, "b_throws", reports[1].Title)
	assert.Contains(t, reports[1].Body, "nope")
	assert.Equal(t, result.RunID, reports[1].Host.RunID)

	snap := a.Metrics().Snapshot()
	assert.Equal(t, uint64(1), snap.FailedRuns)
	assert.Equal(t, 1.0, snap.FailureRate())
}

func TestEvaluateTextReporter(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(f.root, "empty"), 0755))

	a, err := New(f.options(func(c *config.Config) {
		c.Report.Color = config.ColorNever
		c.Report.Frame = false
	}))
	require.NoError(t, err)
	defer a.Shutdown()

	_, err = a.Evaluate(context.Background(), "manual")
	require.ErrorIs(t, err, ErrPluginsFailed)
	assert.Equal(t, "[ERROR] Loading errors\nPlugin: empty. Couldn't find main script\n", f.stderr.String())
	assert.Empty(t, f.stdout.String())
}

func TestEvaluateJSONReporter(t *testing.T) {
	f := newFixture(t)
	writePlugin(t, f.root, "boom", `error("bad")`)

	a, err := New(f.options(func(c *config.Config) { c.Report.Format = config.FormatJSON }))
	require.NoError(t, err)
	defer a.Shutdown()

	result, err := a.Evaluate(context.Background(), "manual")
	require.ErrorIs(t, err, ErrPluginsFailed)

	out := f.stdout.String()
	require.True(t, strings.HasSuffix(out, "\n"))
	assert.True(t, gjson.Valid(out))
	assert.Equal(t, int64(1), gjson.Get(out, "count").Int())
	assert.Equal(t, "boom", gjson.Get(out, "reports.0.title").String())
	assert.Equal(t, result.RunID, gjson.Get(out, "run_id").String())
}

func TestRegistrySelection(t *testing.T) {
	f := newFixture(t)
	regFile := filepath.Join(f.root, "plugins.yaml")
	require.NoError(t, os.WriteFile(regFile, []byte("zeta: zeta\nalpha: alpha\n"), 0644))

	a := f.newApp(t, func(c *config.Config) { c.Plugins.Registry = regFile })
	fr, ok := a.Registry().(*registry.FileRegistry)
	require.True(t, ok)
	assert.Equal(t, regFile, fr.Path())

	ds, err := a.Plugins()
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "zeta", ds[0].ID)
	assert.Equal(t, filepath.Join(f.root, "zeta"), ds[0].Root)

	b := f.newApp(t, nil)
	_, ok = b.Registry().(*registry.DirRegistry)
	assert.True(t, ok)
}

func TestOverrideIsValidated(t *testing.T) {
	f := newFixture(t)
	opts := f.options(nil)
	opts.Override = func(c *config.Config) { c.Report.Format = "html" }

	_, err := New(opts)
	var ce *ComponentError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "config", ce.Component)
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}

func TestNewLoadsConfigFile(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.root, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[plugins]\nroots = [\"plugins\"]\n[engine]\nentry_script = \"main.lua\"\n"), 0644))

	opts := f.options(nil)
	opts.Config = nil
	opts.ConfigPath = path
	a, err := New(opts)
	require.NoError(t, err)
	defer a.Shutdown()

	assert.Equal(t, "main.lua", a.Config().Engine.EntryScript)
	assert.Equal(t, []string{filepath.Join(f.root, "plugins")}, a.Config().Plugins.Roots)
}

func TestShutdown(t *testing.T) {
	f := newFixture(t)
	a := f.newApp(t, nil)

	require.NoError(t, a.Shutdown())
	require.NoError(t, a.Shutdown())
	_, err := a.Evaluate(context.Background(), "manual")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWatchRerunsOnSignalAndChange(t *testing.T) {
	f := newFixture(t)
	writePlugin(t, f.root, "p", `print("run")`)
	a := f.newApp(t, func(c *config.Config) { c.Watch.DebounceMS = 20 })

	ctx, cancel := context.WithCancel(context.Background())
	rerun := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx, rerun) }()

	runs := func() uint64 { return a.Metrics().Snapshot().RunCount }
	require.Eventually(t, func() bool { return runs() == 1 }, 3*time.Second, 10*time.Millisecond)

	rerun <- struct{}{}
	require.Eventually(t, func() bool { return runs() == 2 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(f.root, "p", "plugin.lua"), []byte(`error("broken")`), 0644))
	require.Eventually(t, func() bool { return runs() >= 3 }, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(f.rec.Reports()) >= 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "p", f.rec.Reports()[0].Title)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchNothingToWatch(t *testing.T) {
	f := newFixture(t)
	a := f.newApp(t, func(c *config.Config) {
		c.Plugins.Roots = []string{filepath.Join(f.root, "missing")}
	})

	err := a.Watch(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNothingToWatch))
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, useColor(config.ColorAlways, &buf))
	assert.False(t, useColor(config.ColorNever, &buf))
	assert.False(t, useColor(config.ColorAuto, &buf))
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	assert.Zero(t, m.Snapshot().MinRun)

	m.RecordRun(30*time.Millisecond, &eval.Result{Plugins: []eval.Outcome{{PluginID: "a", State: eval.StateSucceeded}}})
	m.RecordRun(10*time.Millisecond, &eval.Result{
		Plugins:       []eval.Outcome{{PluginID: "a", State: eval.StateDiscoveryFailed}},
		LoadingErrors: []eval.LoadingError{{PluginID: "a", Message: "x"}},
	})

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.RunCount)
	assert.Equal(t, uint64(1), s.FailedRuns)
	assert.Equal(t, 10*time.Millisecond, s.MinRun)
	assert.Equal(t, 30*time.Millisecond, s.MaxRun)
	assert.Equal(t, 20*time.Millisecond, s.AvgRun)
	assert.Equal(t, 10*time.Millisecond, s.LastRun)
	assert.Equal(t, uint64(1), s.States[eval.StateSucceeded])
}

func TestComponentError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewComponentError("logging", "open outputs", cause)
	assert.Equal(t, "logging: open outputs: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}
