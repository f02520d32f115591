package rules

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rentfall/rentfall/internal/infrastructure/logging"
)

// WatcherConfig holds configuration for the rules directory watcher.
type WatcherConfig struct {
	DebounceDuration time.Duration
}

// DefaultWatcherConfig returns sensible default configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{DebounceDuration: 200 * time.Millisecond}
}

// Watcher monitors a rules directory and invokes a callback after changes
// settle. It wraps fsnotify with debouncing and YAML file filtering so a
// single save producing several write events triggers one reload.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    WatcherConfig
	onChange  func(paths []string)
	log       *logging.Logger

	pending   map[string]time.Time
	pendingMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.Mutex
}

// NewWatcher creates a watcher that calls onChange with the changed file
// paths once events have been stable for the debounce duration.
func NewWatcher(cfg WatcherConfig, log *logging.Logger, onChange func(paths []string)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = 200 * time.Millisecond
	}
	if log == nil {
		log = logging.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		onChange:  onChange,
		log:       log,
		pending:   make(map[string]time.Time),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Watch starts watching the given directory. A non-existent directory is
// skipped without error so the engine can run with an empty rules dir.
func (w *Watcher) Watch(dir string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		w.log.Warn("rules directory does not exist, watcher idle", "dir", dir)
	} else if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.processEvents()

	w.wg.Add(1)
	go w.debounceLoop()

	return nil
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}

// processEvents reads from fsnotify and queues YAML changes for debouncing.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !isYAMLFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.pendingMu.Lock()
			w.pending[event.Name] = time.Now()
			w.pendingMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("rules watcher error", "error", err)
		}
	}
}

// debounceLoop periodically flushes events that have settled.
func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.DebounceDuration / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.flushStable()
		}
	}
}

func (w *Watcher) flushStable() {
	now := time.Now()

	w.pendingMu.Lock()
	var stable []string
	for path, ts := range w.pending {
		if now.Sub(ts) >= w.config.DebounceDuration {
			stable = append(stable, path)
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	if len(stable) == 0 || w.onChange == nil {
		return
	}
	w.onChange(stable)
}
