package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/logging"
)

// Watcher reloads the config file when it changes on disk. Editors often
// replace the file rather than write in place, so the parent directory is
// watched and events are filtered to the config filename. Rapid event
// bursts (write + chmod + rename) collapse into one reload via debounce.
type Watcher struct {
	path     string
	onChange func(*Config)

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu       sync.Mutex
	pending  time.Time
	hasEvent bool

	debounce time.Duration
	interval time.Duration

	reloads int
	errors  int
}

// NewWatcher creates a watcher for the config file at path. onChange is
// called with the freshly loaded config after each settled change.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		path:     path,
		onChange: onChange,
		watcher:  fw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		debounce: 500 * time.Millisecond,
		interval: 100 * time.Millisecond,
	}, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
	logging.Config("watching %s for changes", w.path)
}

// Stop halts the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.hasEvent = true
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.errors++
			logging.ConfigWarn("watch error: %v", err)

		case <-ticker.C:
			w.mu.Lock()
			fire := w.hasEvent && time.Since(w.pending) >= w.debounce
			if fire {
				w.hasEvent = false
			}
			w.mu.Unlock()
			if fire {
				w.reload()
			}
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.errors++
		logging.ConfigWarn("reload %s: %v", w.path, err)
		return
	}
	if err := cfg.Validate(); err != nil {
		w.errors++
		logging.ConfigWarn("reload %s: %v", w.path, err)
		return
	}
	w.reloads++
	logging.Config("config reloaded (%d total)", w.reloads)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
