// Package auth identifies the caller of an operation. Services receive the
// resulting Actor explicitly; nothing reads it from global state.
package auth

import (
	"context"

	"github.com/starford/taproom/internal/apperr"
)

// Role grants a set of permissions.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleAdmin  Role = "admin"
)

// Normalize maps a stored role string to a Role. Anything unrecognised is a
// viewer.
func Normalize(role string) Role {
	switch Role(role) {
	case RoleAdmin, RoleViewer:
		return Role(role)
	default:
		return RoleViewer
	}
}

// Actor is an authenticated caller. A nil *Actor is an anonymous caller.
type Actor struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`
}

// LocalAdmin is the actor used when authentication is disabled and for the
// MCP server, which only listens on stdio.
var LocalAdmin = &Actor{Email: "local@taproom", Name: "Local admin", Role: RoleAdmin}

// IsAdmin reports whether a may change site content.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// RequireAdmin returns ErrUnauthorized for an anonymous caller and
// ErrForbidden for a signed-in caller without the admin role.
func RequireAdmin(a *Actor) error {
	if a == nil {
		return apperr.ErrUnauthorized
	}
	if a.Role != RoleAdmin {
		return apperr.ErrForbidden
	}
	return nil
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying a.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the actor stored by WithActor, or nil.
func FromContext(ctx context.Context) *Actor {
	a, _ := ctx.Value(actorKey{}).(*Actor)
	return a
}
