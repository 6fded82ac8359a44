package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/taproom/internal/auth"
	"github.com/starford/taproom/internal/contentservice"
	"github.com/starford/taproom/internal/siteservice"
)

// ListPages handles GET /api/pages. Admins also see unpublished pages.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.content.Pages(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, "list pages", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": pages})
}

// GetPage handles GET /api/pages/{slug}.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.content.Page(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, "get page", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePage handles POST /api/pages.
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var in contentservice.PageInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.content.CreatePage(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, "create page", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePage handles PUT /api/pages/{slug}.
func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	var in contentservice.PageInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.content.UpdatePage(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "slug"), in)
	if err != nil {
		writeError(w, r, "update page", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePage handles DELETE /api/pages/{slug}. The page's content goes with it.
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeletePage(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "slug")); err != nil {
		writeError(w, r, "delete page", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListStaff handles GET /api/staff.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.site.Staff(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, "list staff", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"staff": staff})
}

// CreateStaff handles POST /api/staff.
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var in siteservice.StaffInput
	if !decodeJSON(w, r, &in) {
		return
	}
	m, err := h.site.CreateStaff(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, "create staff", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// UpdateStaff handles PUT /api/staff/{id}.
func (h *Handler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "update staff", err)
		return
	}
	var in siteservice.StaffInput
	if !decodeJSON(w, r, &in) {
		return
	}
	m, err := h.site.UpdateStaff(r.Context(), auth.FromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, r, "update staff", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DeleteStaff handles DELETE /api/staff/{id}.
func (h *Handler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err == nil {
		err = h.site.DeleteStaff(r.Context(), auth.FromContext(r.Context()), id)
	}
	if err != nil {
		writeError(w, r, "delete staff", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMenu handles GET /api/menu.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.site.Menu(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, "list menu", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"menu": items})
}

// CreateMenuItem handles POST /api/menu.
func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var in siteservice.MenuInput
	if !decodeJSON(w, r, &in) {
		return
	}
	it, err := h.site.CreateMenuItem(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, "create menu item", err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// UpdateMenuItem handles PUT /api/menu/{id}.
func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "update menu item", err)
		return
	}
	var in siteservice.MenuInput
	if !decodeJSON(w, r, &in) {
		return
	}
	it, err := h.site.UpdateMenuItem(r.Context(), auth.FromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, r, "update menu item", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// DeleteMenuItem handles DELETE /api/menu/{id}.
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err == nil {
		err = h.site.DeleteMenuItem(r.Context(), auth.FromContext(r.Context()), id)
	}
	if err != nil {
		writeError(w, r, "delete menu item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.site.Settings(r.Context())
	if err != nil {
		writeError(w, r, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// PutSettings handles PUT /api/settings with a flat key/value object.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if !decodeJSON(w, r, &values) {
		return
	}
	settings, err := h.site.PutSettings(r.Context(), auth.FromContext(r.Context()), values)
	if err != nil {
		writeError(w, r, "put settings", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}
