package media

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/taproom/internal/sse"
)

// Watch follows the library directory until ctx is cancelled, recording
// images copied in and forgetting images removed out of band. Renames
// trigger a debounced Sync to pick up the new name.
func (s *Service) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(s.lib.Root()); err != nil {
		return err
	}
	s.logger.Info("media watcher: started", slog.String("root", s.lib.Root()))

	var syncTimer *time.Timer
	var syncCh <-chan time.Time
	scheduleSync := func() {
		if syncTimer == nil {
			syncTimer = time.NewTimer(200 * time.Millisecond)
			syncCh = syncTimer.C
		} else {
			syncTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if syncTimer != nil {
				syncTimer.Stop()
			}
			s.logger.Info("media watcher: stopped")
			return nil

		case <-syncCh:
			if err := s.Sync(ctx); err != nil {
				s.logger.Warn("media watcher: sync failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !IsImageName(name) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				added, err := s.record(ctx, name)
				if err != nil {
					s.logger.Warn("media watcher: record failed", slog.String("filename", name), slog.String("error", err.Error()))
					continue
				}
				if added {
					s.logger.Debug("media watcher: recorded", slog.String("filename", name))
					s.events.PublishSiteEvent(sse.ImageAdded, name)
				}

			case ev.Op&fsnotify.Remove != 0:
				removed, err := s.forget(ctx, name)
				if err != nil {
					s.logger.Warn("media watcher: forget failed", slog.String("filename", name), slog.String("error", err.Error()))
					continue
				}
				if removed {
					s.logger.Debug("media watcher: forgot", slog.String("filename", name))
					s.events.PublishSiteEvent(sse.ImageRemoved, name)
				}

			case ev.Op&fsnotify.Rename != 0:
				// Rename fires on the old name only.
				if removed, err := s.forget(ctx, name); err == nil && removed {
					s.events.PublishSiteEvent(sse.ImageRemoved, name)
				}
				scheduleSync()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("media watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
