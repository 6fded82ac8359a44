package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/auth"
	"github.com/starford/taproom/internal/models"
	"github.com/starford/taproom/internal/sse"
)

// ImageStore records the images in the library.
type ImageStore interface {
	ListImages(ctx context.Context) ([]models.Image, error)
	ImageByFilename(ctx context.Context, filename string) (*models.Image, error)
	UpsertImage(ctx context.Context, im *models.Image) error
	DeleteImage(ctx context.Context, filename string) error
	ImageSizes(ctx context.Context) (map[string]int64, error)
}

// Publisher receives image events.
type Publisher interface {
	PublishSiteEvent(kind, subject string)
}

type nopPublisher struct{}

func (nopPublisher) PublishSiteEvent(string, string) {}

// Service handles uploads and keeps the images table in sync with disk.
type Service struct {
	lib    *Library
	store  ImageStore
	events Publisher
	logger *slog.Logger
}

// NewService returns a Service. events may be nil.
func NewService(lib *Library, st ImageStore, events Publisher, logger *slog.Logger) *Service {
	if events == nil {
		events = nopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{lib: lib, store: st, events: events, logger: logger}
}

// Library returns the underlying file library.
func (s *Service) Library() *Library { return s.lib }

// Upload stores data under a new random name keeping the extension of
// originalName, and records it.
func (s *Service) Upload(ctx context.Context, actor *auth.Actor, originalName string, data []byte) (*models.Image, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	ext := filepath.Ext(originalName)
	if err := CheckContent(data, ext); err != nil {
		return nil, apperr.Invalid("file", "%s", err.Error())
	}

	name := NewFilename(ext)
	if err := s.lib.Write(name, data); err != nil {
		s.logger.Error("image write failed", slog.String("filename", name), slog.String("error", err.Error()))
		return nil, apperr.Persistence("write image", err)
	}
	im := &models.Image{Filename: name, URL: s.lib.URL(name), Size: int64(len(data))}
	if err := s.store.UpsertImage(ctx, im); err != nil {
		s.logger.Error("image record failed", slog.String("filename", name), slog.String("error", err.Error()))
		return nil, apperr.Persistence("record image", err)
	}
	s.events.PublishSiteEvent(sse.ImageAdded, name)
	s.logger.Info("image uploaded", slog.String("filename", name), slog.Int64("size", im.Size))
	return im, nil
}

// List returns recorded images, newest first.
func (s *Service) List(ctx context.Context, actor *auth.Actor) ([]models.Image, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	images, err := s.store.ListImages(ctx)
	if err != nil {
		return nil, apperr.Persistence("list images", err)
	}
	return images, nil
}

// Delete removes an image from disk and from the table. Content blocks that
// still point at it are left alone.
func (s *Service) Delete(ctx context.Context, actor *auth.Actor, filename string) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.lib.Path(filename); err != nil {
		return apperr.Invalid("filename", "%s", err.Error())
	}
	if err := s.store.DeleteImage(ctx, filename); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return apperr.Persistence("delete image", err)
	}
	if err := s.lib.Delete(filename); err != nil {
		s.logger.Warn("image file delete failed", slog.String("filename", filename), slog.String("error", err.Error()))
	}
	s.events.PublishSiteEvent(sse.ImageRemoved, filename)
	return nil
}

// Sync brings the images table up to date with the directory:
//   - files on disk that are missing or changed in size are recorded
//   - records whose file is gone are removed
func (s *Service) Sync(ctx context.Context) error {
	files, err := s.lib.List()
	if err != nil {
		return err
	}
	sizes, err := s.store.ImageSizes(ctx)
	if err != nil {
		return fmt.Errorf("media: sync: %w", err)
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Name] = struct{}{}
		if size, ok := sizes[f.Name]; ok && size == f.Size {
			continue
		}
		im := &models.Image{Filename: f.Name, URL: s.lib.URL(f.Name), Size: f.Size}
		if err := s.store.UpsertImage(ctx, im); err != nil {
			s.logger.Warn("sync: record failed", slog.String("filename", f.Name), slog.String("error", err.Error()))
			continue
		}
		s.logger.Debug("sync: recorded", slog.String("filename", f.Name))
	}

	for name := range sizes {
		if _, ok := disk[name]; ok {
			continue
		}
		if err := s.store.DeleteImage(ctx, name); err != nil {
			s.logger.Warn("sync: delete failed", slog.String("filename", name), slog.String("error", err.Error()))
			continue
		}
		s.logger.Debug("sync: removed stale", slog.String("filename", name))
	}
	return nil
}

// record registers a file seen by the watcher. It reports whether the image
// was not recorded before.
func (s *Service) record(ctx context.Context, name string) (bool, error) {
	f, err := s.lib.Stat(name)
	if err != nil {
		return false, err
	}
	existing, err := s.store.ImageByFilename(ctx, name)
	switch {
	case err == nil && existing.Size == f.Size:
		return false, nil
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		return false, err
	}
	im := &models.Image{Filename: name, URL: s.lib.URL(name), Size: f.Size}
	if err := s.store.UpsertImage(ctx, im); err != nil {
		return false, err
	}
	return existing == nil, nil
}

// forget drops the record of a file the watcher saw disappear. It reports
// whether a record existed.
func (s *Service) forget(ctx context.Context, name string) (bool, error) {
	err := s.store.DeleteImage(ctx, name)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
