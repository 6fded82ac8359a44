package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/models"
)

const userColumns = `id, email, name, role, password_hash, created_at, updated_at`

// CreateUser inserts u. Email must be unique.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	now := db.now()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (email, name, role, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.Name, u.Role, u.PasswordHash, now, now)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %q: %w", u.Email, apperr.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("store: create user: %w", err)
	}
	u.ID, _ = res.LastInsertId()
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// UserByEmail looks a user up for sign-in.
func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", email, apperr.ErrNotFound)
	}
	return u, err
}

// UserByID returns one user.
func (db *DB) UserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	return u, err
}

// ListUsers returns every user ordered by email.
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("store: list users: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// DeleteUser removes one user.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	if err := s.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
