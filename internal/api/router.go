package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/taproom/internal/auth"
	"github.com/starford/taproom/internal/contentservice"
	"github.com/starford/taproom/internal/media"
	"github.com/starford/taproom/internal/siteservice"
)

// Services are the collaborators the API routes call into.
type Services struct {
	Content       *contentservice.Service
	Site          *siteservice.Service
	Media         *media.Service
	Users         *auth.Service
	Authenticator *auth.Authenticator
	// Events, if non-nil, is mounted at GET /events for admins.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted. Reads of
// published site content are public; writes require an admin actor.
func NewRouter(s Services) chi.Router {
	h := NewHandler(s)

	r := chi.NewRouter()
	r.Use(ActorMiddleware(s.Authenticator))

	// Page content.
	r.Get("/page-content", h.GetPageContent)
	r.Post("/page-content", h.SavePageContent)
	r.Get("/page-content/render", h.RenderPageContent)
	r.With(RequireAdmin).Post("/page-content/validate", h.ValidateBlock)

	// Page registry.
	r.Get("/pages", h.ListPages)
	r.Get("/pages/{slug}", h.GetPage)
	r.Post("/pages", h.CreatePage)
	r.Put("/pages/{slug}", h.UpdatePage)
	r.Delete("/pages/{slug}", h.DeletePage)

	// Staff and menu.
	r.Get("/staff", h.ListStaff)
	r.Post("/staff", h.CreateStaff)
	r.Put("/staff/{id}", h.UpdateStaff)
	r.Delete("/staff/{id}", h.DeleteStaff)
	r.Get("/menu", h.ListMenu)
	r.Post("/menu", h.CreateMenuItem)
	r.Put("/menu/{id}", h.UpdateMenuItem)
	r.Delete("/menu/{id}", h.DeleteMenuItem)

	// Settings.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.PutSettings)

	// Images.
	if s.Media != nil {
		r.Get("/images", h.ListImages)
		r.Post("/images", h.UploadImage)
		r.Delete("/images/{filename}", h.DeleteImage)
	}

	// Accounts.
	r.Post("/auth/login", h.Login)
	r.Get("/auth/me", h.Me)
	r.Get("/users", h.ListUsers)
	r.Post("/users", h.CreateUser)
	r.Delete("/users/{id}", h.DeleteUser)

	// SSE endpoint (admins only).
	if s.Events != nil {
		r.With(RequireAdmin).Get("/events", s.Events.ServeHTTP)
	}

	return r
}
