package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/models"
)

const staffColumns = `id, name, position, bio, image_url, display_order, active, created_at, updated_at`

// ListStaff returns staff ordered for display. Inactive members are included
// only when all is true.
func (db *DB) ListStaff(ctx context.Context, all bool) ([]models.StaffMember, error) {
	q := `SELECT ` + staffColumns + ` FROM staff`
	if !all {
		q += ` WHERE active = 1`
	}
	rows, err := db.conn.QueryContext(ctx, q+` ORDER BY display_order, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list staff: %w", err)
	}
	defer rows.Close()

	out := []models.StaffMember{}
	for rows.Next() {
		m, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// GetStaff returns one staff member.
func (db *DB) GetStaff(ctx context.Context, id int64) (*models.StaffMember, error) {
	m, err := scanStaff(db.conn.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("staff %d: %w", id, apperr.ErrNotFound)
	}
	return m, err
}

// CreateStaff inserts m and fills in its id and timestamps.
func (db *DB) CreateStaff(ctx context.Context, m *models.StaffMember) error {
	now := db.now()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO staff (name, position, bio, image_url, display_order, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.Position, m.Bio, m.ImageURL, m.DisplayOrder, boolInt(m.Active), now, now)
	if err != nil {
		return fmt.Errorf("store: create staff: %w", err)
	}
	m.ID, _ = res.LastInsertId()
	m.CreatedAt, m.UpdatedAt = now, now
	return nil
}

// UpdateStaff overwrites every editable field of m.
func (db *DB) UpdateStaff(ctx context.Context, m *models.StaffMember) error {
	now := db.now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE staff SET name = ?, position = ?, bio = ?, image_url = ?, display_order = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		m.Name, m.Position, m.Bio, m.ImageURL, m.DisplayOrder, boolInt(m.Active), now, m.ID)
	if err != nil {
		return fmt.Errorf("store: update staff: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("staff %d: %w", m.ID, apperr.ErrNotFound)
	}
	m.UpdatedAt = now
	return nil
}

// DeleteStaff removes one staff member.
func (db *DB) DeleteStaff(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM staff WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete staff: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("staff %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func scanStaff(s scanner) (*models.StaffMember, error) {
	var m models.StaffMember
	err := s.Scan(&m.ID, &m.Name, &m.Position, &m.Bio, &m.ImageURL, &m.DisplayOrder, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
