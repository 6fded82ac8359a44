package api

import (
	"net/http"

	"github.com/starford/taproom/internal/auth"
)

// Login handles POST /api/auth/login.
//
//	@Summary		Sign in and receive a session token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	auth.Session
//	@Failure		401		{object}	errResponse
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("email and password are required"))
		return
	}
	session, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor := auth.FromContext(r.Context())
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorBody("authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, actor)
}

// ListUsers handles GET /api/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in auth.NewUser
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.users.Create(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, "create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// DeleteUser handles DELETE /api/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err == nil {
		err = h.users.Delete(r.Context(), auth.FromContext(r.Context()), id)
	}
	if err != nil {
		writeError(w, r, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
