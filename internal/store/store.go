package store

import (
	"context"

	"github.com/starford/taproom/internal/models"
)

// ContentStore is the persistence contract for page content. Consumers should
// depend on it rather than on *DB.
type ContentStore interface {
	ListByPage(ctx context.Context, slug string) ([]models.ContentBlock, error)
	ReplacePage(ctx context.Context, slug string, in []models.BlockInput) ([]models.ContentBlock, error)
}

var _ ContentStore = (*DB)(nil)
