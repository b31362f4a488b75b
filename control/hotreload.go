// control/hotreload.go
// Watches a config file and re-reads the environment configuration
// into the store on every change.

package control

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// Watch observes path (an env-format config file) and pushes a
// reloaded configuration into store on every write. Blocks until ctx
// is done. Invalid intermediate file states are logged and skipped.
func Watch(ctx context.Context, path string, store *ConfigStore, log *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: editors replace files on save, which drops
	// a watch registered on the file itself.
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := godotenv.Overload(path); err != nil {
				log.Warn("config reload: read failed", "path", path, "err", err)
				continue
			}
			cfg, err := Load()
			if err != nil {
				log.Warn("config reload: invalid config", "err", err)
				continue
			}
			if err := store.Update(cfg); err != nil {
				log.Warn("config reload: rejected", "err", err)
				continue
			}
			log.Info("config reloaded", "path", path)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", "err", err)
		}
	}
}
