package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/starford/taproom/internal/models"
)

// Mode selects how callers are identified.
type Mode string

const (
	ModeDisabled Mode = "disabled"
	ModeToken    Mode = "token"
	ModeSession  Mode = "session"
)

// UserLookup finds the current record of a signed-in user.
type UserLookup interface {
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticator turns an Authorization header into an Actor.
type Authenticator struct {
	mode   Mode
	token  string
	tokens *Tokens
	users  UserLookup
	logger *slog.Logger
}

// NewAuthenticator builds an Authenticator. token is used in ModeToken;
// tokens and users in ModeSession.
func NewAuthenticator(mode Mode, token string, tokens *Tokens, users UserLookup, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{mode: mode, token: token, tokens: tokens, users: users, logger: logger}
}

// Resolve returns the actor for header, or nil for an anonymous caller.
// Invalid credentials are treated as anonymous.
func (a *Authenticator) Resolve(ctx context.Context, header string) *Actor {
	switch a.mode {
	case ModeDisabled, "":
		return LocalAdmin
	case ModeToken:
		bearer, ok := bearerToken(header)
		if ok && subtle.ConstantTimeCompare([]byte(bearer), []byte(a.token)) == 1 {
			return &Actor{Email: "token@taproom", Name: "API token", Role: RoleAdmin}
		}
		return nil
	case ModeSession:
		bearer, ok := bearerToken(header)
		if !ok || a.tokens == nil {
			return nil
		}
		actor, err := a.tokens.Parse(bearer)
		if err != nil {
			a.logger.Debug("session token rejected", slog.String("error", err.Error()))
			return nil
		}
		if a.users == nil {
			return actor
		}
		u, err := a.users.UserByID(ctx, actor.ID)
		if err != nil {
			return nil
		}
		return ActorFor(u)
	}
	return nil
}

// ActorFor converts a stored user into an Actor.
func ActorFor(u *models.User) *Actor {
	return &Actor{ID: u.ID, Email: u.Email, Name: u.Name, Role: Normalize(u.Role)}
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return tok, tok != ""
}
