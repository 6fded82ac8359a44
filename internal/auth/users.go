package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/models"
)

// UserStore is the persistence needed for accounts.
type UserStore interface {
	UserLookup
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Service manages accounts and sign-in.
type Service struct {
	users  UserStore
	tokens *Tokens
}

// NewService returns a Service. tokens may be nil when sessions are off, in
// which case Login is unavailable.
func NewService(users UserStore, tokens *Tokens) *Service {
	return &Service{users: users, tokens: tokens}
}

// NewUser is the input for creating an account.
type NewUser struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate checks the fields of u.
func (u NewUser) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Email, validation.Required, is.EmailFormat),
		validation.Field(&u.Password, validation.Required, validation.Length(MinPasswordLength, 0)),
		validation.Field(&u.Role, validation.In(string(RoleAdmin), string(RoleViewer))),
	)
}

// Session is the result of a successful sign-in.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *Actor    `json:"user"`
}

// Login checks credentials and issues a session token. Unknown email and
// wrong password both yield ErrUnauthorized.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if s.tokens == nil {
		return nil, fmt.Errorf("sign-in is not enabled: %w", apperr.ErrConflict)
	}
	u, err := s.users.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, apperr.Persistence("login", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, apperr.ErrUnauthorized
	}
	actor := ActorFor(u)
	token, exp, err := s.tokens.Issue(actor)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: actor}, nil
}

// Create adds an account. by must be an admin; pass LocalAdmin from
// trusted entry points such as the CLI.
func (s *Service) Create(ctx context.Context, by *Actor, in NewUser) (*models.User, error) {
	if err := RequireAdmin(by); err != nil {
		return nil, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = string(RoleViewer)
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Email: in.Email, Name: in.Name, Role: in.Role, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return nil, err
		}
		return nil, apperr.Persistence("create user", err)
	}
	return u, nil
}

// List returns all accounts.
func (s *Service) List(ctx context.Context, by *Actor) ([]models.User, error) {
	if err := RequireAdmin(by); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, apperr.Persistence("list users", err)
	}
	return users, nil
}

// Delete removes an account. Admins cannot delete themselves.
func (s *Service) Delete(ctx context.Context, by *Actor, id int64) error {
	if err := RequireAdmin(by); err != nil {
		return err
	}
	if by.ID != 0 && by.ID == id {
		return apperr.Invalid("id", "cannot delete your own account")
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return apperr.Persistence("delete user", err)
	}
	return nil
}
