// Package watcher reloads the application catalog when its file on
// disk changes.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadHandler is called when a catalog file change is detected.
type ReloadHandler func() error

// Watcher watches the catalog file and triggers reloads with debounce.
type Watcher struct {
	path       string
	handler    ReloadHandler
	logger     *slog.Logger
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	lastReload time.Time
	debounce   time.Duration
}

// Config holds watcher configuration.
type Config struct {
	Path     string
	Handler  ReloadHandler
	Logger   *slog.Logger
	Debounce time.Duration
}

// New creates a catalog file watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("catalog path is required")
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("reload handler is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = time.Second
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &Watcher{
		path:     absPath,
		handler:  cfg.Handler,
		logger:   cfg.Logger.With("component", "catalog_watcher"),
		watcher:  fsWatcher,
		debounce: cfg.Debounce,
	}, nil
}

// Start begins watching the catalog file for changes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch catalog file: %w", err)
	}

	w.logger.Info("Catalog watcher started",
		"path", w.path,
		"debounce", w.debounce)

	go w.watchLoop(ctx)
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Catalog watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.handleFileChange(event)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Catalog watcher error", "error", err)
		}
	}
}

// handleFileChange processes a change event with debouncing.
func (w *Watcher) handleFileChange(event fsnotify.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if time.Since(w.lastReload) < w.debounce {
		w.logger.Debug("Catalog change debounced",
			"event", event.Op.String())
		return
	}

	w.logger.Info("Catalog file changed, reloading",
		"path", event.Name,
		"event", event.Op.String())

	if err := w.handler(); err != nil {
		w.logger.Error("Catalog reload failed", "error", err)
		// Keep lastReload unchanged so the next event retries.
		return
	}

	w.lastReload = time.Now()
	w.logger.Info("Catalog reload successful")
}

// Stop stops the file watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
