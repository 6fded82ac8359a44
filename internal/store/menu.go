package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/models"
)

const menuColumns = `id, name, description, category, price, image_url, available, display_order, created_at, updated_at`

// ListMenu returns menu items grouped by category, then in display order.
// Unavailable items are included only when all is true.
func (db *DB) ListMenu(ctx context.Context, all bool) ([]models.MenuItem, error) {
	q := `SELECT ` + menuColumns + ` FROM menu_items`
	if !all {
		q += ` WHERE available = 1`
	}
	rows, err := db.conn.QueryContext(ctx, q+` ORDER BY category, display_order, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list menu: %w", err)
	}
	defer rows.Close()

	out := []models.MenuItem{}
	for rows.Next() {
		it, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

// GetMenuItem returns one menu item.
func (db *DB) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	it, err := scanMenuItem(db.conn.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("menu item %d: %w", id, apperr.ErrNotFound)
	}
	return it, err
}

// CreateMenuItem inserts it and fills in its id and timestamps.
func (db *DB) CreateMenuItem(ctx context.Context, it *models.MenuItem) error {
	now := db.now()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO menu_items (name, description, category, price, image_url, available, display_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.Name, it.Description, it.Category, it.Price, it.ImageURL, boolInt(it.Available), it.DisplayOrder, now, now)
	if err != nil {
		return fmt.Errorf("store: create menu item: %w", err)
	}
	it.ID, _ = res.LastInsertId()
	it.CreatedAt, it.UpdatedAt = now, now
	return nil
}

// UpdateMenuItem overwrites every editable field of it.
func (db *DB) UpdateMenuItem(ctx context.Context, it *models.MenuItem) error {
	now := db.now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE menu_items SET name = ?, description = ?, category = ?, price = ?, image_url = ?,
			available = ?, display_order = ?, updated_at = ?
		WHERE id = ?`,
		it.Name, it.Description, it.Category, it.Price, it.ImageURL, boolInt(it.Available), it.DisplayOrder, now, it.ID)
	if err != nil {
		return fmt.Errorf("store: update menu item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("menu item %d: %w", it.ID, apperr.ErrNotFound)
	}
	it.UpdatedAt = now
	return nil
}

// DeleteMenuItem removes one menu item.
func (db *DB) DeleteMenuItem(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete menu item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("menu item %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func scanMenuItem(s scanner) (*models.MenuItem, error) {
	var it models.MenuItem
	err := s.Scan(&it.ID, &it.Name, &it.Description, &it.Category, &it.Price, &it.ImageURL,
		&it.Available, &it.DisplayOrder, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
