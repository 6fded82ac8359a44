package contentservice

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/auth"
	"github.com/starford/taproom/internal/models"
	"github.com/starford/taproom/internal/sse"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// PageInput is the editable part of a page.
type PageInput struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Published   bool   `json:"published"`
}

// Validate checks the fields of p.
func (p PageInput) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Slug, validation.Required, validation.Length(1, 100),
			validation.Match(slugRe).Error("must be lowercase words joined by dashes")),
		validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Description, validation.Length(0, 1000)),
	)
}

// Pages lists the page registry. Anonymous and viewer callers only see
// published pages.
func (s *Service) Pages(ctx context.Context, actor *auth.Actor) ([]models.Page, error) {
	pages, err := s.store.ListPages(ctx, actor.IsAdmin())
	if err != nil {
		return nil, apperr.Persistence("list pages", err)
	}
	return pages, nil
}

// Page returns one page. Unpublished pages are hidden from non-admins.
func (s *Service) Page(ctx context.Context, actor *auth.Actor, slug string) (*models.Page, error) {
	p, err := s.store.GetPage(ctx, slug)
	if err != nil {
		return nil, s.pageErr("get page", err)
	}
	if !p.Published && !actor.IsAdmin() {
		return nil, fmt.Errorf("page %q: %w", slug, apperr.ErrNotFound)
	}
	return p, nil
}

// CreatePage registers a page.
func (s *Service) CreatePage(ctx context.Context, actor *auth.Actor, in PageInput) (*models.Page, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	in.Slug = strings.TrimSpace(in.Slug)
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	p := &models.Page{Slug: in.Slug, Title: in.Title, Description: in.Description, Published: in.Published}
	if err := s.store.CreatePage(ctx, p); err != nil {
		return nil, s.pageErr("create page", err)
	}
	return p, nil
}

// UpdatePage changes title, description and publish state of slug.
func (s *Service) UpdatePage(ctx context.Context, actor *auth.Actor, slug string, in PageInput) (*models.Page, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	in.Slug = slug
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	p := &models.Page{Slug: slug, Title: in.Title, Description: in.Description, Published: in.Published}
	if err := s.store.UpdatePage(ctx, p); err != nil {
		return nil, s.pageErr("update page", err)
	}
	return s.store.GetPage(ctx, slug)
}

// DeletePage removes slug and all of its content.
func (s *Service) DeletePage(ctx context.Context, actor *auth.Actor, slug string) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if err := s.store.DeletePage(ctx, slug); err != nil {
		return s.pageErr("delete page", err)
	}
	s.invalidate(ctx, slug)
	s.events.PublishSiteEvent(sse.PageDeleted, slug)
	s.logger.Info("page deleted", slog.String("page_slug", slug), slog.String("actor", actor.Email))
	return nil
}

func (s *Service) pageErr(op string, err error) error {
	if isClientError(err) {
		return err
	}
	s.logger.Error(op+" failed", slog.String("error", err.Error()))
	return apperr.Persistence(op, err)
}
