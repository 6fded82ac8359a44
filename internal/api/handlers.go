package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/auth"
	"github.com/starford/taproom/internal/checksum"
	"github.com/starford/taproom/internal/contentservice"
	"github.com/starford/taproom/internal/media"
	"github.com/starford/taproom/internal/siteservice"
)

// Handler holds API route handlers.
type Handler struct {
	content *contentservice.Service
	site    *siteservice.Service
	images  *media.Service
	users   *auth.Service
}

// NewHandler creates a new Handler.
func NewHandler(s Services) *Handler {
	return &Handler{content: s.Content, site: s.Site, images: s.Media, users: s.Users}
}

// GetPageContent handles GET /api/page-content.
//
//	@Summary		List the content blocks of a page in display order
//	@Tags			page-content
//	@Produce		json
//	@Param			pageSlug		query		string	true	"Page slug"
//	@Param			If-None-Match	header		string	false	"ETag of a cached response"
//	@Success		200				{object}	PageContentResponse
//	@Success		304				"Not modified"
//	@Failure		400				{object}	errResponse
//	@Router			/page-content [get]
func (h *Handler) GetPageContent(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.List(r.Context(), r.URL.Query().Get("pageSlug"))
	if err != nil {
		writeError(w, r, "list page content", err)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(PageContentResponse{PageContent: items}); err != nil {
		writeError(w, r, "encode page content", err)
		return
	}
	etag := checksum.ETag(buf.Bytes())
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if checksum.Matches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Debug("write page content failed", slog.String("error", err.Error()))
	}
}

// SavePageContent handles POST /api/page-content.
//
//	@Summary		Replace all content blocks of a page
//	@Tags			page-content
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SavePageContentRequest	true	"Full block list of the page"
//	@Success		200		{object}	SavePageContentResponse
//	@Failure		400		{object}	errResponse
//	@Failure		401		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page-content [post]
func (h *Handler) SavePageContent(w http.ResponseWriter, r *http.Request) {
	actor := auth.FromContext(r.Context())
	if err := auth.RequireAdmin(actor); err != nil {
		writeError(w, r, "save page content", err)
		return
	}

	var req SavePageContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PageSlug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("pageSlug is required"))
		return
	}
	if req.Content == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	saved, err := h.content.Save(r.Context(), actor, req.PageSlug, *req.Content)
	if err != nil {
		writeError(w, r, "save page content", err)
		return
	}
	writeJSON(w, http.StatusOK, SavePageContentResponse{Success: true, PageContent: saved})
}

// RenderPageContent handles GET /api/page-content/render.
func (h *Handler) RenderPageContent(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("pageSlug")
	views, err := h.content.Render(r.Context(), slug)
	if err != nil {
		writeError(w, r, "render page content", err)
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{PageSlug: slug, Blocks: views})
}

// ValidateBlock handles POST /api/page-content/validate. Nothing is stored.
func (h *Handler) ValidateBlock(w http.ResponseWriter, r *http.Request) {
	var req ValidateBlockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ContentType == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("contentType is required"))
		return
	}
	writeJSON(w, http.StatusOK, h.content.ValidateBlock(req.ContentType, req.Content))
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("id", "must be a positive integer")
	}
	return id, nil
}
