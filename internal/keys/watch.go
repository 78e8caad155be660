package keys

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads pool whenever the keys file at path changes. It blocks until
// ctx is done. The file must exist when Watch starts.
//
// viper offers no way to stop its watcher, so the fsnotify goroutine outlives
// Watch; change events that arrive after ctx is done are ignored.
func Watch(ctx context.Context, path string, pool *Pool, logger *slog.Logger) error {
	v, err := readKeysFile(path)
	if err != nil {
		return err
	}

	v.OnConfigChange(reloadOnChange(ctx, pool, logger))
	v.WatchConfig()
	logger.Info("watching api keys file", "file", path)

	<-ctx.Done()
	return nil
}

func reloadOnChange(ctx context.Context, pool *Pool, logger *slog.Logger) func(fsnotify.Event) {
	return func(e fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}
		if pool.Reload() {
			logger.Info("api keys reloaded", "file", e.Name, "count", pool.Len())
		}
	}
}
