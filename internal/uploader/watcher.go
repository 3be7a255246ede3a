package uploader

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounceInterval is how long the directory must stay quiet after a
// change before a new run is triggered, batching editor save storms and
// bulk copies into a single sync.
const watchDebounceInterval = 2 * time.Second

// Watcher monitors an upload directory and triggers update-mode runs when
// its contents settle after a change. Runs never overlap: events arriving
// during a run are coalesced into the next one.
type Watcher struct {
	dir     string
	logger  *slog.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher creates a recursive watcher over dir.
func NewWatcher(dir string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		dir:     dir,
		logger:  logger,
		watcher: fsw,
	}

	if err := w.addRecursive(dir); err != nil {
		fsw.Close()

		return nil, err
	}

	return w, nil
}

// addRecursive watches dir and every subdirectory. fsnotify has no
// recursive mode, so each directory is registered individually; newly
// created directories are added as their create events arrive.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}

			w.logger.Warn("watch skip", slog.String("path", path), slog.String("error", err.Error()))

			return nil
		}

		if d.IsDir() {
			return w.watcher.Add(path)
		}

		return nil
	})
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run blocks, invoking sync after each debounced burst of changes, until
// ctx is cancelled. Errors from sync runs are the callback's concern;
// watching continues regardless.
func (w *Watcher) Run(ctx context.Context, sync func(ctx context.Context)) error {
	ticker := time.NewTicker(watchDebounceInterval)
	defer ticker.Stop()

	var (
		dirty     bool
		lastEvent time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("watching new directory",
							slog.String("path", event.Name),
							slog.String("error", err.Error()),
						)
					}
				}
			}

			dirty = true
			lastEvent = time.Now()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			if !dirty || time.Since(lastEvent) < watchDebounceInterval {
				continue
			}

			dirty = false

			w.logger.Info("changes settled, starting sync")
			sync(ctx)
		}
	}
}
