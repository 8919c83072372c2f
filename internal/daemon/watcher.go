package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitesync/internal/config"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
)

// configWatcher reloads the configuration file when it changes on disk.
// Editors save in bursts, so changes are debounced before reloading.
type configWatcher struct {
	path     string
	debounce time.Duration
	apply    func(*config.Config)

	watcher *fsnotify.Watcher
	stop    chan struct{}
	pending chan struct{}
}

func newConfigWatcher(path string, debounce time.Duration, apply func(*config.Config)) (*configWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	return &configWatcher{
		path:     absPath,
		debounce: debounce,
		apply:    apply,
		watcher:  watcher,
		stop:     make(chan struct{}),
		pending:  make(chan struct{}, 1),
	}, nil
}

// Start watches the directory holding the config file. Watching the
// directory instead of the file survives rename-based atomic saves.
func (w *configWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch config directory: %w", err)
	}

	slog.Info("Watching configuration", slog.String(logfields.Path, w.path))
	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)
	return nil
}

// Stop shuts the watcher down.
func (w *configWatcher) Stop() {
	close(w.stop)
	if err := w.watcher.Close(); err != nil {
		slog.Error("Error closing file watcher", slog.Any(logfields.Error, err))
	}
}

func (w *configWatcher) watchLoop(ctx context.Context) {
	configFile := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}

			switch {
			case event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Rename):
				slog.Debug("Config file change detected", slog.String(logfields.Path, event.Name))
				w.trigger()
			case event.Op.Has(fsnotify.Remove):
				slog.Warn("Config file removed", slog.String(logfields.Path, event.Name))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", slog.Any(logfields.Error, err))
		}
	}
}

// reloadLoop collapses change bursts into one reload per debounce window.
func (w *configWatcher) reloadLoop(ctx context.Context) {
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.pending:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)
		}
	}
}

func (w *configWatcher) trigger() {
	select {
	case w.pending <- struct{}{}:
	default:
		// Reload already pending.
	}
}

// reload parses and applies the changed file. A file that fails to load
// or validate is rejected; the previous configuration stays active.
func (w *configWatcher) reload() {
	slog.Info("Reloading configuration", slog.String(logfields.Path, w.path))

	cfg, err := config.Load(w.path)
	if err != nil {
		slog.Error("Config reload failed; keeping previous configuration",
			slog.Any(logfields.Error, err))
		return
	}
	w.apply(cfg)
}
