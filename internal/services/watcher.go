package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherFailed indicates the filesystem watcher could not be created.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// defaultDebounce batches the event bursts that editors and atomic-rename
// writers produce into a single reload.
const defaultDebounce = 500 * time.Millisecond

// Watcher triggers a reload when files under the watched directories
// change. Changes are debounced: the reload fires once the directory has
// been quiet for the debounce window.
type Watcher struct {
	watcher  *fsnotify.Watcher
	reload   func()
	debounce time.Duration
	logger   *zap.Logger
	stop     chan struct{}
}

// NewWatcher watches dirs and arranges for reload to run after changes
// settle. Directories that cannot be watched are skipped with a warning;
// the constructor fails only when none can. The watcher is inert until
// Start is called.
func NewWatcher(dirs []string, reload func(), logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	added := 0
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		added++
	}
	if added == 0 {
		_ = fsw.Close()
		return nil, fmt.Errorf("%w: no watchable directories", ErrWatcherFailed)
	}

	return &Watcher{
		watcher:  fsw,
		reload:   reload,
		debounce: defaultDebounce,
		logger:   logger,
		stop:     make(chan struct{}),
	}, nil
}

// Start begins processing events in a background goroutine until ctx is
// canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.processEvents(ctx)
}

// Stop stops the watcher and releases its resources. Safe to call more
// than once.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		// Already stopped.
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	// pending is nil while no reload is scheduled. Each relevant event
	// replaces it, so the reload fires only after a quiet window.
	var pending <-chan time.Time

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("data change detected",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()),
			)
			pending = time.After(w.debounce)
		case <-pending:
			pending = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("data watcher error", zap.Error(err))
		}
	}
}
