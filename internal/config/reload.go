package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ksurct/common/internal/log"
)

// ReloadFunc receives the freshly loaded configuration after a file
// change. It runs on the watcher goroutine; keep it quick.
type ReloadFunc func(AppConfig)

// Watcher reloads configuration when the config file changes on disk.
type Watcher struct {
	loader   *Loader
	path     string
	onReload ReloadFunc
	// debounce coalesces editor write bursts into one reload.
	debounce time.Duration
}

// NewWatcher returns a watcher for the loader's config file.
func NewWatcher(loader *Loader, path string, onReload ReloadFunc) *Watcher {
	return &Watcher{
		loader:   loader,
		path:     path,
		onReload: onReload,
		debounce: 250 * time.Millisecond,
	}
}

// Run watches until ctx is done. Watching the parent directory keeps
// the watch alive across the rename-over-write most editors and
// atomic writers do.
func (w *Watcher) Run(ctx context.Context) error {
	logger := log.WithComponent("config.watcher")

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil {
			logger.Debug().Err(cerr).Msg("close fsnotify watcher")
		}
	}()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	logger.Info().
		Str(log.FieldPath, w.path).
		Msg("watching config file for changes")

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("config watcher error")

		case <-timerC:
			timer = nil
			timerC = nil
			cfg, err := w.loader.Load()
			if err != nil {
				logger.Error().
					Err(err).
					Str(log.FieldEvent, "config.reload_failed").
					Msg("config file changed but reload failed, keeping previous config")
				continue
			}
			logger.Info().
				Str(log.FieldEvent, "config.reloaded").
				Str(log.FieldPath, w.path).
				Msg("configuration reloaded")
			w.onReload(cfg)
		}
	}
}
