package api

import (
	"github.com/starford/taproom/internal/models"
	"github.com/starford/taproom/internal/render"
)

// PageContentResponse is returned by GET /page-content.
type PageContentResponse struct {
	PageContent []models.ContentBlock `json:"pageContent" validate:"required"`
}

// SavePageContentRequest is the request body for POST /page-content. The
// position of each block in Content becomes its display order.
type SavePageContentRequest struct {
	PageSlug string               `json:"pageSlug" example:"about" validate:"required"`
	Content  *[]models.BlockInput `json:"content" validate:"required"`
}

// SavePageContentResponse carries the stored state after a save.
type SavePageContentResponse struct {
	Success     bool                  `json:"success" example:"true" validate:"required"`
	PageContent []models.ContentBlock `json:"pageContent" validate:"required"`
}

// RenderResponse is returned by GET /page-content/render.
type RenderResponse struct {
	PageSlug string        `json:"pageSlug" example:"home" validate:"required"`
	Blocks   []render.View `json:"blocks" validate:"required"`
}

// ValidateBlockRequest is the request body for POST /page-content/validate.
type ValidateBlockRequest struct {
	ContentType string  `json:"contentType" example:"hero" validate:"required"`
	Content     *string `json:"content" example:"{\"title\":\"Welcome\"}"`
}

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" example:"owner@example.com" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ImageUploadResponse is returned after a successful image upload.
type ImageUploadResponse = models.Image
