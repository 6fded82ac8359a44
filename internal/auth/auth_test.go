package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/models"
)

type memUsers struct {
	byID map[int64]*models.User
	next int64
}

func newMemUsers() *memUsers { return &memUsers{byID: map[int64]*models.User{}} }

func (m *memUsers) UserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) UserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *memUsers) CreateUser(_ context.Context, u *models.User) error {
	if _, err := m.UserByEmail(context.Background(), u.Email); err == nil {
		return apperr.ErrAlreadyExists
	}
	m.next++
	u.ID = m.next
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) ListUsers(context.Context) ([]models.User, error) {
	out := []models.User{}
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsers) DeleteUser(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func TestNormalize(t *testing.T) {
	if Normalize("admin") != RoleAdmin || Normalize("viewer") != RoleViewer || Normalize("root") != RoleViewer {
		t.Error("unexpected normalisation")
	}
}

func TestRequireAdmin(t *testing.T) {
	if err := RequireAdmin(nil); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("anonymous err = %v", err)
	}
	if err := RequireAdmin(&Actor{Role: RoleViewer}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("viewer err = %v", err)
	}
	if err := RequireAdmin(&Actor{Role: RoleAdmin}); err != nil {
		t.Errorf("admin err = %v", err)
	}
}

func TestActorContext(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != nil {
		t.Error("empty context should have no actor")
	}
	a := &Actor{ID: 7, Role: RoleAdmin}
	if got := FromContext(WithActor(ctx, a)); got != a {
		t.Errorf("actor = %+v", got)
	}
}

func TestPasswords(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("short password err = %v", err)
	}
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "correct horse") || CheckPassword(hash, "wrong horse") {
		t.Error("password check mismatch")
	}
}

func TestTokens(t *testing.T) {
	tokens := NewTokens("0123456789abcdef", time.Hour)
	tok, exp, err := tokens.Issue(&Actor{ID: 3, Email: "a@example.com", Role: RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry in the past: %v", exp)
	}
	a, err := tokens.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != 3 || a.Role != RoleAdmin || a.Email != "a@example.com" {
		t.Errorf("actor = %+v", a)
	}

	if _, err := NewTokens("another-secret-value", time.Hour).Parse(tok); err == nil {
		t.Error("token signed with another secret should fail")
	}

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := tokens.Parse(tok); err == nil {
		t.Error("expired token should fail")
	}
}

func TestAuthenticatorModes(t *testing.T) {
	ctx := context.Background()

	disabled := NewAuthenticator(ModeDisabled, "", nil, nil, nil)
	if !disabled.Resolve(ctx, "").IsAdmin() {
		t.Error("disabled mode should resolve to admin")
	}

	token := NewAuthenticator(ModeToken, "s3cret", nil, nil, nil)
	if !token.Resolve(ctx, "Bearer s3cret").IsAdmin() {
		t.Error("matching token should be admin")
	}
	if token.Resolve(ctx, "Bearer nope") != nil || token.Resolve(ctx, "") != nil {
		t.Error("bad token should be anonymous")
	}

	users := newMemUsers()
	viewer := &models.User{Email: "v@example.com", Role: "viewer"}
	_ = users.CreateUser(ctx, viewer)
	tokens := NewTokens("0123456789abcdef", time.Hour)
	session := NewAuthenticator(ModeSession, "", tokens, users, nil)

	tok, _, _ := tokens.Issue(ActorFor(viewer))
	a := session.Resolve(ctx, "Bearer "+tok)
	if a == nil || a.Role != RoleViewer {
		t.Fatalf("session actor = %+v", a)
	}

	// Role changes take effect on the next request.
	viewer.Role = "admin"
	if !session.Resolve(ctx, "Bearer "+tok).IsAdmin() {
		t.Error("stored role should win over token claim")
	}

	_ = users.DeleteUser(ctx, viewer.ID)
	if session.Resolve(ctx, "Bearer "+tok) != nil {
		t.Error("deleted user should be anonymous")
	}
}

func TestServiceLoginAndCreate(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	svc := NewService(users, NewTokens("0123456789abcdef", time.Hour))

	if _, err := svc.Create(ctx, nil, NewUser{Email: "x@example.com", Password: "password1"}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("anonymous create err = %v", err)
	}
	if _, err := svc.Create(ctx, LocalAdmin, NewUser{Email: "not-an-email", Password: "password1"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad email err = %v", err)
	}

	u, err := svc.Create(ctx, LocalAdmin, NewUser{Email: " Boss@Example.com ", Name: "Boss", Password: "password1", Role: "admin"})
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "boss@example.com" || u.PasswordHash == "password1" {
		t.Errorf("user = %+v", u)
	}
	if _, err := svc.Create(ctx, LocalAdmin, NewUser{Email: "boss@example.com", Password: "password1"}); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate err = %v", err)
	}

	if _, err := svc.Login(ctx, "boss@example.com", "wrong-password"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := svc.Login(ctx, "ghost@example.com", "password1"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("unknown user err = %v", err)
	}
	sess, err := svc.Login(ctx, "Boss@example.com", "password1")
	if err != nil {
		t.Fatal(err)
	}
	if sess.Token == "" || !sess.User.IsAdmin() {
		t.Errorf("session = %+v", sess)
	}

	if err := svc.Delete(ctx, sess.User, sess.User.ID); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("self delete err = %v", err)
	}
}
