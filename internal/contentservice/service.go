// Package contentservice coordinates page content reads and saves across the
// store, the read cache and the live event stream.
package contentservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/auth"
	"github.com/starford/taproom/internal/blocks"
	"github.com/starford/taproom/internal/cache"
	"github.com/starford/taproom/internal/models"
	"github.com/starford/taproom/internal/pagebuilder"
	"github.com/starford/taproom/internal/render"
	"github.com/starford/taproom/internal/sse"
	"github.com/starford/taproom/internal/store"
)

// Store is the persistence the service needs.
type Store interface {
	store.ContentStore
	ListPages(ctx context.Context, all bool) ([]models.Page, error)
	GetPage(ctx context.Context, slug string) (*models.Page, error)
	CreatePage(ctx context.Context, p *models.Page) error
	UpdatePage(ctx context.Context, p *models.Page) error
	DeletePage(ctx context.Context, slug string) error
}

// Publisher receives change notifications.
type Publisher interface {
	PublishSiteEvent(kind, subject string)
}

type nopPublisher struct{}

func (nopPublisher) PublishSiteEvent(string, string) {}

// Service owns the page content operations.
type Service struct {
	store  Store
	cache  cache.PageCache
	events Publisher
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache puts c in front of public reads.
func WithCache(c cache.PageCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithPublisher sends change events to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New returns a Service over st.
func New(st Store, opts ...Option) *Service {
	s := &Service{store: st, cache: cache.Nop{}, events: nopPublisher{}, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns the blocks of slug in display order. An empty page is an
// empty slice, not an error.
func (s *Service) List(ctx context.Context, slug string) ([]models.ContentBlock, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperr.Invalid("pageSlug", "is required")
	}

	cached, ok, err := s.cache.Get(ctx, slug)
	if err != nil {
		s.logger.Warn("page cache read failed", slog.String("page_slug", slug), slog.String("error", err.Error()))
	}
	if ok {
		return cached, nil
	}

	// The generation is taken before the store read so that a save landing
	// in between makes the fill below a no-op.
	gen, genErr := s.cache.Generation(ctx, slug)
	if genErr != nil {
		s.logger.Warn("page cache generation failed", slog.String("page_slug", slug), slog.String("error", genErr.Error()))
	}

	items, err := s.loadPage(ctx, slug)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		if _, err := s.cache.Fill(ctx, slug, gen, items); err != nil {
			s.logger.Warn("page cache write failed", slog.String("page_slug", slug), slog.String("error", err.Error()))
		}
	}
	return items, nil
}

func (s *Service) loadPage(ctx context.Context, slug string) ([]models.ContentBlock, error) {
	items, err := s.store.ListByPage(ctx, slug)
	if err != nil {
		s.logger.Error("list page content failed", slog.String("page_slug", slug), slog.String("error", err.Error()))
		return nil, apperr.Persistence("list page content", err)
	}
	return items, nil
}

// Save replaces the content of slug with in, in order. Only admins may save;
// the check happens before anything is touched. in may be empty, which
// clears the page.
func (s *Service) Save(ctx context.Context, actor *auth.Actor, slug string, in []models.BlockInput) ([]models.ContentBlock, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperr.Invalid("pageSlug", "is required")
	}
	for i, b := range in {
		if strings.TrimSpace(b.SectionKey) == "" {
			return nil, apperr.Invalid(fmt.Sprintf("content[%d].sectionKey", i), "is required")
		}
		if strings.TrimSpace(b.ContentType) == "" {
			return nil, apperr.Invalid(fmt.Sprintf("content[%d].contentType", i), "is required")
		}
	}
	if in == nil {
		in = []models.BlockInput{}
	}

	saved, err := s.store.ReplacePage(ctx, slug, in)
	if err != nil {
		s.logger.Error("save page content failed",
			slog.String("page_slug", slug),
			slog.Int("blocks", len(in)),
			slog.String("error", err.Error()))
		return nil, apperr.Persistence("save page content", err)
	}

	s.invalidate(ctx, slug)
	s.events.PublishSiteEvent(sse.ContentSaved, slug)
	s.logger.Info("page content saved",
		slog.String("page_slug", slug),
		slog.Int("blocks", len(saved)),
		slog.String("actor", actor.Email))
	return saved, nil
}

// Render returns the display form of every block of slug. Blocks that cannot
// be read render as notices; they never fail the page.
func (s *Service) Render(ctx context.Context, slug string) ([]render.View, error) {
	items, err := s.List(ctx, slug)
	if err != nil {
		return nil, err
	}
	return render.Page(items), nil
}

// Check is the advisory verdict on one block.
type Check struct {
	Valid  bool              `json:"valid"`
	Known  bool              `json:"known"`
	Errors map[string]string `json:"errors"`
}

// ValidateBlock checks content against the schema of contentType without
// storing anything. Unknown types are reported as valid but not known.
func (s *Service) ValidateBlock(contentType string, content *string) Check {
	res := Check{Known: blocks.Known(contentType), Errors: map[string]string{}}
	p, err := blocks.Decode(contentType, content)
	if err != nil {
		res.Errors[""] = blocks.ErrInvalidContent.Error()
		return res
	}
	res.Errors = blocks.FieldErrors(blocks.Validate(p))
	res.Valid = len(res.Errors) == 0
	return res
}

// Committer returns a pagebuilder.Committer that saves as actor.
func (s *Service) Committer(actor *auth.Actor) pagebuilder.Committer {
	return actorCommitter{svc: s, actor: actor}
}

type actorCommitter struct {
	svc   *Service
	actor *auth.Actor
}

func (c actorCommitter) SavePageContent(ctx context.Context, slug string, in []models.BlockInput) ([]models.ContentBlock, error) {
	return c.svc.Save(ctx, c.actor, slug, in)
}

// OpenDraft loads slug into a new editing draft. Drafts read the store
// directly, never the cache.
func (s *Service) OpenDraft(ctx context.Context, slug string) (*pagebuilder.Draft, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperr.Invalid("pageSlug", "is required")
	}
	items, err := s.loadPage(ctx, slug)
	if err != nil {
		return nil, err
	}
	return pagebuilder.NewDraft(slug, items), nil
}

func (s *Service) invalidate(ctx context.Context, slug string) {
	if err := s.cache.Invalidate(ctx, slug); err != nil {
		s.logger.Warn("page cache invalidate failed", slog.String("page_slug", slug), slog.String("error", err.Error()))
	}
}

func isClientError(err error) bool {
	return errors.Is(err, apperr.ErrNotFound) ||
		errors.Is(err, apperr.ErrAlreadyExists) ||
		errors.Is(err, apperr.ErrInvalidInput)
}
