// Package watch reruns an action when files with a given extension change in
// a directory.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
)

// DefaultDebounce is how long changes must settle before the action runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors dir and calls OnChange after matching changes settle.
type Watcher struct {
	dir       string
	extension string
	onChange  func(ctx context.Context) error
	debounce  time.Duration

	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	stopChan    chan struct{}
	triggerChan chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// New creates a watcher for files ending in extension inside dir.
func New(dir, extension string, debounce time.Duration, onChange func(ctx context.Context) error) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.FileSystemError("failed to create file watcher").WithCause(err).Fatal().Build()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		_ = fw.Close()
		return nil, ferrors.FileSystemError("failed to resolve watch directory").WithCause(err).Fatal().Build()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:         abs,
		extension:   extension,
		onChange:    onChange,
		debounce:    debounce,
		watcher:     fw,
		stopChan:    make(chan struct{}),
		triggerChan: make(chan struct{}, 1),
	}, nil
}

// Start begins monitoring the directory.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		return ferrors.FileSystemError("failed to watch directory").WithCause(err).
			Fatal().WithContext("path", w.dir).Build()
	}
	slog.Info("Watching for changes", logfields.Path(w.dir), slog.String("extension", w.extension))

	w.wg.Add(2)
	go w.watchLoop(ctx)
	go w.triggerLoop(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutines.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		if err := w.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	})
	w.wg.Wait()
}

// Run starts the watcher and blocks until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != w.extension {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				slog.Debug("Change detected", logfields.File(event.Name), slog.String("op", event.Op.String()))
				w.trigger()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

// triggerLoop runs onChange on its own goroutine, so runs never overlap and
// Stop returns only after a running onChange has finished.
func (w *Watcher) triggerLoop(ctx context.Context) {
	defer w.wg.Done()
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-w.triggerChan:
			timer.Reset(w.debounce)
		case <-timer.C:
			if err := w.onChange(ctx); err != nil {
				slog.Error("Failed to handle change", logfields.Error(err))
			}
		}
	}
}

func (w *Watcher) trigger() {
	select {
	case w.triggerChan <- struct{}{}:
	default:
	}
}
