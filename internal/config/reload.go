package config

import (
	"context"

	"github.com/dagu-org/scenewatcher/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// Watch watches path for writes and invokes onChange with a freshly
// parsed File each time, until ctx is cancelled. A parse error is logged
// and the previous config keeps running — a bad write never tears down a
// live watcher fleet (SPEC_FULL.md's Configuration section: "reconstruction
// is still a fresh build from config, never a partial in-place mutation").
func Watch(ctx context.Context, path string, log logger.Logger, onChange func(*File, string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := w.Add(path); err != nil {
		_ = w.Close()
		return err
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				f, batchID, err := Load(path)
				if err != nil {
					log.Error("batch-config reload failed, keeping previous config", "path", path, "error", err)
					continue
				}
				log.Info("batch-config reloaded", "path", path, "batch_id", batchID)
				onChange(f, batchID)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error("batch-config watch error", "path", path, "error", err)
			}
		}
	}()

	return nil
}
