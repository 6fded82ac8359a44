// Package siteservice manages the venue records around the pages: staff,
// menu and site settings.
package siteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/auth"
	"github.com/starford/taproom/internal/models"
)

// Store is the persistence the service needs.
type Store interface {
	ListStaff(ctx context.Context, all bool) ([]models.StaffMember, error)
	GetStaff(ctx context.Context, id int64) (*models.StaffMember, error)
	CreateStaff(ctx context.Context, m *models.StaffMember) error
	UpdateStaff(ctx context.Context, m *models.StaffMember) error
	DeleteStaff(ctx context.Context, id int64) error

	ListMenu(ctx context.Context, all bool) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	CreateMenuItem(ctx context.Context, it *models.MenuItem) error
	UpdateMenuItem(ctx context.Context, it *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id int64) error

	Settings(ctx context.Context) (map[string]string, error)
	PutSettings(ctx context.Context, values map[string]string) error
}

// Service owns staff, menu and settings.
type Service struct {
	store  Store
	logger *slog.Logger
}

// New returns a Service over st.
func New(st Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger}
}

// StaffInput is the editable part of a staff member.
type StaffInput struct {
	Name         string `json:"name"`
	Position     string `json:"position"`
	Bio          string `json:"bio"`
	ImageURL     string `json:"imageUrl"`
	DisplayOrder int    `json:"displayOrder"`
	Active       *bool  `json:"active"`
}

// Validate checks the fields of in.
func (in StaffInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Position, validation.Length(0, 100)),
		validation.Field(&in.Bio, validation.Length(0, 2000)),
		validation.Field(&in.DisplayOrder, validation.Min(0)),
	)
}

// MenuInput is the editable part of a menu item.
type MenuInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Price        int64  `json:"price"`
	ImageURL     string `json:"imageUrl"`
	Available    *bool  `json:"available"`
	DisplayOrder int    `json:"displayOrder"`
}

// Validate checks the fields of in.
func (in MenuInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Category, validation.Required, validation.Length(1, 50)),
		validation.Field(&in.Price, validation.Min(int64(0))),
		validation.Field(&in.Description, validation.Length(0, 1000)),
		validation.Field(&in.DisplayOrder, validation.Min(0)),
	)
}

// Staff lists staff. Inactive members are only shown to admins.
func (s *Service) Staff(ctx context.Context, actor *auth.Actor) ([]models.StaffMember, error) {
	list, err := s.store.ListStaff(ctx, actor.IsAdmin())
	if err != nil {
		return nil, s.fail("list staff", err)
	}
	return list, nil
}

// CreateStaff adds a staff member.
func (s *Service) CreateStaff(ctx context.Context, actor *auth.Actor, in StaffInput) (*models.StaffMember, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	m := &models.StaffMember{Active: true}
	applyStaff(m, in)
	if err := s.store.CreateStaff(ctx, m); err != nil {
		return nil, s.fail("create staff", err)
	}
	return m, nil
}

// UpdateStaff overwrites the staff member id.
func (s *Service) UpdateStaff(ctx context.Context, actor *auth.Actor, id int64, in StaffInput) (*models.StaffMember, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	m, err := s.store.GetStaff(ctx, id)
	if err != nil {
		return nil, s.fail("get staff", err)
	}
	applyStaff(m, in)
	if err := s.store.UpdateStaff(ctx, m); err != nil {
		return nil, s.fail("update staff", err)
	}
	return m, nil
}

// DeleteStaff removes the staff member id.
func (s *Service) DeleteStaff(ctx context.Context, actor *auth.Actor, id int64) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if err := s.store.DeleteStaff(ctx, id); err != nil {
		return s.fail("delete staff", err)
	}
	return nil
}

// Menu lists menu items. Unavailable items are only shown to admins.
func (s *Service) Menu(ctx context.Context, actor *auth.Actor) ([]models.MenuItem, error) {
	list, err := s.store.ListMenu(ctx, actor.IsAdmin())
	if err != nil {
		return nil, s.fail("list menu", err)
	}
	return list, nil
}

// CreateMenuItem adds a menu item.
func (s *Service) CreateMenuItem(ctx context.Context, actor *auth.Actor, in MenuInput) (*models.MenuItem, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	it := &models.MenuItem{Available: true}
	applyMenu(it, in)
	if err := s.store.CreateMenuItem(ctx, it); err != nil {
		return nil, s.fail("create menu item", err)
	}
	return it, nil
}

// UpdateMenuItem overwrites the menu item id.
func (s *Service) UpdateMenuItem(ctx context.Context, actor *auth.Actor, id int64, in MenuInput) (*models.MenuItem, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	it, err := s.store.GetMenuItem(ctx, id)
	if err != nil {
		return nil, s.fail("get menu item", err)
	}
	applyMenu(it, in)
	if err := s.store.UpdateMenuItem(ctx, it); err != nil {
		return nil, s.fail("update menu item", err)
	}
	return it, nil
}

// DeleteMenuItem removes the menu item id.
func (s *Service) DeleteMenuItem(ctx context.Context, actor *auth.Actor, id int64) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if err := s.store.DeleteMenuItem(ctx, id); err != nil {
		return s.fail("delete menu item", err)
	}
	return nil
}

// Settings returns all site settings.
func (s *Service) Settings(ctx context.Context) (map[string]string, error) {
	values, err := s.store.Settings(ctx)
	if err != nil {
		return nil, s.fail("get settings", err)
	}
	return values, nil
}

// PutSettings upserts values and returns the full set.
func (s *Service) PutSettings(ctx context.Context, actor *auth.Actor, values map[string]string) (map[string]string, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, apperr.Invalid("settings", "at least one key is required")
	}
	for k, v := range values {
		if k == "" || len(k) > 100 {
			return nil, apperr.Invalid("settings", "keys must be 1 to 100 characters")
		}
		if len(v) > 5000 {
			return nil, apperr.Invalid(k, "value is too long")
		}
	}
	if err := s.store.PutSettings(ctx, values); err != nil {
		return nil, s.fail("put settings", err)
	}
	return s.Settings(ctx)
}

func applyStaff(m *models.StaffMember, in StaffInput) {
	m.Name = in.Name
	m.Position = in.Position
	m.Bio = in.Bio
	m.ImageURL = in.ImageURL
	m.DisplayOrder = in.DisplayOrder
	if in.Active != nil {
		m.Active = *in.Active
	}
}

func applyMenu(it *models.MenuItem, in MenuInput) {
	it.Name = in.Name
	it.Description = in.Description
	it.Category = in.Category
	it.Price = in.Price
	it.ImageURL = in.ImageURL
	it.DisplayOrder = in.DisplayOrder
	if in.Available != nil {
		it.Available = *in.Available
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
}

func (s *Service) fail(op string, err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	s.logger.Error(op+" failed", slog.String("error", err.Error()))
	return apperr.Persistence(op, err)
}
