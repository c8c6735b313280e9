package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// newCountingWatcher builds a watcher over dir with a short debounce and
// a channel that receives one value per reload.
func newCountingWatcher(t *testing.T, dir string) (*Watcher, chan struct{}) {
	t.Helper()
	reloads := make(chan struct{}, 16)
	w, err := NewWatcher([]string{dir}, func() {
		select {
		case reloads <- struct{}{}:
		default:
		}
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond
	t.Cleanup(w.Stop)
	return w, reloads
}

func expectReload(t *testing.T, reloads <-chan struct{}) {
	t.Helper()
	select {
	case <-reloads:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a reload")
	}
}

func expectQuiet(t *testing.T, reloads <-chan struct{}, window time.Duration) {
	t.Helper()
	select {
	case <-reloads:
		t.Fatal("unexpected reload")
	case <-time.After(window):
	}
}

func TestNewWatcher_NoWatchableDirs(t *testing.T) {
	_, err := NewWatcher([]string{filepath.Join(t.TempDir(), "missing")}, func() {}, nil)
	require.ErrorIs(t, err, ErrWatcherFailed)

	_, err = NewWatcher(nil, func() {}, nil)
	require.ErrorIs(t, err, ErrWatcherFailed)
}

func TestNewWatcher_SkipsUnwatchableDir(t *testing.T) {
	good := t.TempDir()
	missing := filepath.Join(t.TempDir(), "missing")

	w, err := NewWatcher([]string{missing, good}, func() {}, zaptest.NewLogger(t))
	require.NoError(t, err)
	w.Stop()
}

func TestWatcher_DebounceCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	w, reloads := newCountingWatcher(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	// A burst of writes lands as one reload.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "facts.json"), []byte(`{}`), 0o644))
	}
	expectReload(t, reloads)
	expectQuiet(t, reloads, 300*time.Millisecond)

	// A later write fires again.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "facts.json"), []byte(`{"v":2}`), 0o644))
	expectReload(t, reloads)
}

func TestWatcher_IgnoresChmod(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	w, reloads := newCountingWatcher(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.Chmod(path, 0o600))
	expectQuiet(t, reloads, 300*time.Millisecond)
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	w, reloads := newCountingWatcher(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	// Give the goroutine a beat to observe cancellation.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "facts.json"), []byte(`{}`), 0o644))
	expectQuiet(t, reloads, 300*time.Millisecond)
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w, _ := newCountingWatcher(t, t.TempDir())
	assert.NotPanics(t, func() {
		w.Stop()
		w.Stop()
	})
}
