package api

import (
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/starford/taproom/internal/auth"
	"github.com/starford/taproom/internal/media"
)

// multipartOverhead leaves room for the form framing around the file.
const multipartOverhead = 1 << 20

// ListImages handles GET /api/images.
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.images.List(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, "list images", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": images})
}

// UploadImage handles POST /api/images (multipart/form-data, field "file").
//
//	@Summary		Upload an image
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"png, jpg, jpeg, gif, webp or svg, at most 10 MB"
//	@Success		201		{object}	ImageUploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/images [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxImageSize+multipartOverhead)

	if err := r.ParseMultipartForm(media.MaxImageSize + multipartOverhead); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, media.MaxImageSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	if len(data) > media.MaxImageSize {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large (max 10 MB)"))
		return
	}

	im, err := h.images.Upload(r.Context(), auth.FromContext(r.Context()), header.Filename, data)
	if err != nil {
		writeError(w, r, "upload image", err)
		return
	}
	writeJSON(w, http.StatusCreated, im)
}

// DeleteImage handles DELETE /api/images/{filename}.
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := h.images.Delete(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "filename")); err != nil {
		writeError(w, r, "delete image", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeUploads returns a handler for GET {prefix}/{filename} that serves
// files from lib.
func ServeUploads(lib *media.Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		abs, err := lib.Path(chi.URLParam(r, "filename"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeFile(w, r, abs)
	}
}
