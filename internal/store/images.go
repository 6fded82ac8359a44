package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/models"
)

// ListImages returns uploaded images, newest first.
func (db *DB) ListImages(ctx context.Context) ([]models.Image, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, filename, url, size, created_at FROM images ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list images: %w", err)
	}
	defer rows.Close()

	out := []models.Image{}
	for rows.Next() {
		var im models.Image
		if err := rows.Scan(&im.ID, &im.Filename, &im.URL, &im.Size, &im.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

// ImageByFilename returns the image stored under filename.
func (db *DB) ImageByFilename(ctx context.Context, filename string) (*models.Image, error) {
	var im models.Image
	err := db.conn.QueryRowContext(ctx, `SELECT id, filename, url, size, created_at FROM images WHERE filename = ?`, filename).
		Scan(&im.ID, &im.Filename, &im.URL, &im.Size, &im.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image %q: %w", filename, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get image: %w", err)
	}
	return &im, nil
}

// UpsertImage records im by filename, refreshing url and size if it exists.
func (db *DB) UpsertImage(ctx context.Context, im *models.Image) error {
	now := db.now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO images (filename, url, size, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET url = excluded.url, size = excluded.size`,
		im.Filename, im.URL, im.Size, now)
	if err != nil {
		return fmt.Errorf("store: upsert image: %w", err)
	}
	return db.conn.QueryRowContext(ctx, `SELECT id, created_at FROM images WHERE filename = ?`, im.Filename).
		Scan(&im.ID, &im.CreatedAt)
}

// DeleteImage forgets the image stored under filename.
func (db *DB) DeleteImage(ctx context.Context, filename string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM images WHERE filename = ?`, filename)
	if err != nil {
		return fmt.Errorf("store: delete image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("image %q: %w", filename, apperr.ErrNotFound)
	}
	return nil
}

// ImageSizes returns filename -> size for every recorded image.
func (db *DB) ImageSizes(ctx context.Context) (map[string]int64, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT filename, size FROM images`)
	if err != nil {
		return nil, fmt.Errorf("store: image sizes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			name string
			size int64
		)
		if err := rows.Scan(&name, &size); err != nil {
			return nil, err
		}
		out[name] = size
	}
	return out, rows.Err()
}
