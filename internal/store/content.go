package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/taproom/internal/models"
)

const contentColumns = `id, page_slug, section_key, content_type, content, display_order, created_at, updated_at`

// ListByPage returns the blocks of slug ordered by display order, ties broken
// by insertion. A page with no blocks yields an empty, non-nil slice.
func (db *DB) ListByPage(ctx context.Context, slug string) ([]models.ContentBlock, error) {
	return listByPage(ctx, db.conn, slug)
}

// ReplacePage makes in the complete content of slug: existing rows are
// deleted, in is inserted with display order equal to its index, and the
// stored result is read back. All of it happens in one transaction; on any
// error the page is left as it was.
func (db *DB) ReplacePage(ctx context.Context, slug string, in []models.BlockInput) ([]models.ContentBlock, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	created, err := createdAtByKey(ctx, tx, slug)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM page_content WHERE page_slug = ?`, slug); err != nil {
		return nil, fmt.Errorf("store: clear page: %w", err)
	}

	if len(in) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO page_content (page_slug, section_key, content_type, content, display_order, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return nil, fmt.Errorf("store: prepare insert: %w", err)
		}
		defer stmt.Close()

		now := db.now()
		for i, b := range in {
			createdAt, ok := created[b.SectionKey]
			if !ok {
				createdAt = now
			}
			if _, err := stmt.ExecContext(ctx, slug, b.SectionKey, b.ContentType, nullString(b.Content), i, createdAt, now); err != nil {
				return nil, fmt.Errorf("store: insert block %d (%s): %w", i, b.SectionKey, err)
			}
		}
	}

	out, err := listByPage(ctx, tx, slug)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return out, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listByPage(ctx context.Context, q querier, slug string) ([]models.ContentBlock, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+contentColumns+` FROM page_content
		WHERE page_slug = ? ORDER BY display_order ASC, id ASC`, slug)
	if err != nil {
		return nil, fmt.Errorf("store: list page %q: %w", slug, err)
	}
	defer rows.Close()

	out := []models.ContentBlock{}
	for rows.Next() {
		var (
			b       models.ContentBlock
			content sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.PageSlug, &b.SectionKey, &b.ContentType, &content,
			&b.DisplayOrder, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan block: %w", err)
		}
		if content.Valid {
			c := content.String
			b.Content = &c
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// createdAtByKey keeps the creation time of blocks that survive a replace
// under the same section key.
func createdAtByKey(ctx context.Context, tx *sql.Tx, slug string) (map[string]time.Time, error) {
	rows, err := tx.QueryContext(ctx, `SELECT section_key, created_at FROM page_content WHERE page_slug = ? ORDER BY id`, slug)
	if err != nil {
		return nil, fmt.Errorf("store: read created_at: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var (
			key string
			at  time.Time
		)
		if err := rows.Scan(&key, &at); err != nil {
			return nil, err
		}
		if _, seen := out[key]; !seen {
			out[key] = at
		}
	}
	return out, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
