package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherDebouncesMatchingChanges(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w, err := New(dir, ".bench", 50*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	path := filepath.Join(dir, "named_args.bench")
	for i := range 3 {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0o644))
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}

func TestWatcherStopWaitsForRunningChange(t *testing.T) {
	dir := t.TempDir()
	started := make(chan struct{}, 1)
	var running, maxRunning atomic.Int32
	var finished atomic.Bool
	w, err := New(dir, ".bench", 10*time.Millisecond, func(context.Context) error {
		n := running.Add(1)
		defer running.Add(-1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	path := filepath.Join(dir, "named_args.bench")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("change was not handled")
	}
	// Further changes while the first run is still busy.
	require.NoError(t, os.WriteFile(path, []byte("b"), 0o644))
	time.Sleep(30 * time.Millisecond)

	w.Stop()
	require.True(t, finished.Load())
	require.Equal(t, int32(1), maxRunning.Load())
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w, err := New(dir, ".bench", 20*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "CMakeLists.txt"), []byte("x"), 0o644))
	time.Sleep(150 * time.Millisecond)
	w.Stop()
	require.Zero(t, calls.Load())
}

func TestWatcherMissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing"), ".bench", 0, func(context.Context) error { return nil })
	require.NoError(t, err)
	require.Error(t, w.Start(context.Background()))
	w.Stop()
}
