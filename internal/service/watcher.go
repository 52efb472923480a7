package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanshika/bacondistance/internal/logging"
)

const defaultDebounce = 500 * time.Millisecond

// ArtifactWatcher calls a reload function whenever the artifact file is
// rewritten. The parent directory is watched because atomic writes replace
// the file with a rename.
type ArtifactWatcher struct {
	path     string
	reload   func(context.Context) error
	debounce time.Duration
	logger   *slog.Logger
}

func NewArtifactWatcher(path string, reload func(context.Context) error, logger *slog.Logger) *ArtifactWatcher {
	return &ArtifactWatcher{
		path:     filepath.Clean(path),
		reload:   reload,
		debounce: defaultDebounce,
		logger:   logging.Component(logger, "watcher"),
	}
}

// WithDebounce sets how long the watcher waits for writes to settle.
func (w *ArtifactWatcher) WithDebounce(d time.Duration) *ArtifactWatcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// Run blocks until ctx is cancelled.
func (w *ArtifactWatcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching dataset artifact", "path", w.path)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("artifact changed", "op", event.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		case <-timer.C:
			if err := w.reload(ctx); err != nil {
				w.logger.Error("reload after change failed", "error", err)
			}
		}
	}
}
