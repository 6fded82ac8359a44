package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/models"
)

const pageColumns = `id, slug, title, description, published, created_at, updated_at`

// ListPages returns pages ordered by slug. Unpublished pages are included
// only when all is true.
func (db *DB) ListPages(ctx context.Context, all bool) ([]models.Page, error) {
	q := `SELECT ` + pageColumns + ` FROM pages`
	if !all {
		q += ` WHERE published = 1`
	}
	rows, err := db.conn.QueryContext(ctx, q+` ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("store: list pages: %w", err)
	}
	defer rows.Close()

	out := []models.Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetPage returns the page with slug.
func (db *DB) GetPage(ctx context.Context, slug string) (*models.Page, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE slug = ?`, slug)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page %q: %w", slug, apperr.ErrNotFound)
	}
	return p, err
}

// CreatePage inserts p and fills in its id and timestamps.
func (db *DB) CreatePage(ctx context.Context, p *models.Page) error {
	now := db.now()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO pages (slug, title, description, published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, p.Description, boolInt(p.Published), now, now)
	if isUniqueViolation(err) {
		return fmt.Errorf("page %q: %w", p.Slug, apperr.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("store: create page: %w", err)
	}
	p.ID, _ = res.LastInsertId()
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

// UpdatePage overwrites title, description and published of the page with
// p.Slug.
func (db *DB) UpdatePage(ctx context.Context, p *models.Page) error {
	now := db.now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE pages SET title = ?, description = ?, published = ?, updated_at = ?
		WHERE slug = ?`,
		p.Title, p.Description, boolInt(p.Published), now, p.Slug)
	if err != nil {
		return fmt.Errorf("store: update page: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("page %q: %w", p.Slug, apperr.ErrNotFound)
	}
	p.UpdatedAt = now
	return nil
}

// DeletePage removes the page and all of its content blocks together.
func (db *DB) DeletePage(ctx context.Context, slug string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("store: delete page: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("page %q: %w", slug, apperr.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM page_content WHERE page_slug = ?`, slug); err != nil {
		return fmt.Errorf("store: delete page content: %w", err)
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(s scanner) (*models.Page, error) {
	var p models.Page
	if err := s.Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.Published, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
