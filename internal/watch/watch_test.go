package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	triggers []Trigger
}

func (r *recorder) run(_ context.Context, t Trigger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, t)
	return nil
}

func (r *recorder) all() []Trigger {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Trigger, len(r.triggers))
	copy(out, r.triggers)
	return out
}

func TestTriggerCoalescesWhileRunning(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var mu sync.Mutex
	var reasons []string

	w, err := New(func(ctx context.Context, tr Trigger) error {
		mu.Lock()
		reasons = append(reasons, tr.Reason)
		first := len(reasons) == 1
		mu.Unlock()
		if first {
			started <- struct{}{}
			<-release
		}
		return nil
	})
	require.NoError(t, err)
	defer w.Close()

	ctx := context.Background()
	w.Trigger(ctx, Trigger{Reason: ReasonInitial})
	<-started

	for i := 0; i < 5; i++ {
		w.Trigger(ctx, Trigger{Reason: ReasonSignal})
	}
	close(release)

	require.Eventually(t, func() bool { return w.Runs() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(2), w.Runs(), "queued triggers must collapse into one follow-up run")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{ReasonInitial, ReasonSignal}, reasons)
}

func TestRunsNeverOverlap(t *testing.T) {
	var active, maxActive int
	var mu sync.Mutex

	w, err := New(func(ctx context.Context, tr Trigger) error {
		mu.Lock()
		active++
		maxActive = max(maxActive, active)
		mu.Unlock()

		time.Sleep(2 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		w.Trigger(ctx, Trigger{Reason: ReasonSignal})
	}
	require.NoError(t, w.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxActive)
	assert.GreaterOrEqual(t, w.Runs(), int64(1))
}

func TestRunErrorDoesNotStopWatcher(t *testing.T) {
	w, err := New(func(ctx context.Context, tr Trigger) error {
		return errors.New("plugin set broken")
	})
	require.NoError(t, err)
	defer w.Close()

	w.Trigger(context.Background(), Trigger{Reason: ReasonSignal})
	require.Eventually(t, func() bool { return w.Runs() == 1 }, time.Second, 5*time.Millisecond)
	w.Trigger(context.Background(), Trigger{Reason: ReasonSignal})
	require.Eventually(t, func() bool { return w.Runs() == 2 }, time.Second, 5*time.Millisecond)
}

func TestAddWatchesSubdirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0755))

	var rec recorder
	w, err := New(rec.run)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add(root))
	assert.Equal(t, []string{root, filepath.Join(root, "a"), filepath.Join(root, "a", "b")}, w.WatchedPaths())
}

func TestAddMissingPath(t *testing.T) {
	w, err := New((&recorder{}).run)
	require.NoError(t, err)
	defer w.Close()

	err = w.Add(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrPathNotExist)
}

func TestRunDebouncesFileChanges(t *testing.T) {
	root := t.TempDir()
	var rec recorder
	w, err := New(rec.run, WithDebounce(100*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Add(root))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "plugin.lua"), []byte("print(1)"), 0644))
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0644))

	require.Eventually(t, func() bool { return len(rec.all()) >= 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)

	triggers := rec.all()
	require.Len(t, triggers, 1, "a burst of writes is one run")
	assert.Equal(t, ReasonChange, triggers[0].Reason)
	assert.Equal(t, []string{filepath.Join(root, "plugin.lua")}, triggers[0].Paths)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestTriggerAfterCloseIsNoop(t *testing.T) {
	var rec recorder
	w, err := New(rec.run)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w.Trigger(context.Background(), Trigger{Reason: ReasonSignal})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, rec.all())
	assert.ErrorIs(t, w.Add(t.TempDir()), ErrWatcherClosed)
}
