package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const userColumns = `email, phone, api_uid, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u      User
		phone  sql.NullString
		apiUID sql.NullString
	)
	if err := row.Scan(&u.Email, &phone, &apiUID, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Phone = phone.String
	u.APIUID = apiUID.String
	return &u, nil
}

// CreateUser inserts a user. Empty phone and api_uid are stored as NULL.
// Returns ErrAlreadyExists when the email, phone or api_uid is taken.
func (db *DB) CreateUser(ctx context.Context, email, phone, apiUID string) (*User, error) {
	query := `
		INSERT INTO users (email, phone, api_uid, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING ` + userColumns
	u, err := scanUser(db.conn.QueryRowContext(ctx, query, email, nullIfEmpty(phone), nullIfEmpty(apiUID)))
	if err != nil {
		if pqCode(err) == codeUniqueViolation {
			return nil, fmt.Errorf("user %s: %w", email, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// GetUser retrieves a user by email.
func (db *DB) GetUser(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(db.conn.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ListUsers retrieves users ordered by email.
func (db *DB) ListUsers(ctx context.Context, limit, offset int) (*Page[*User], error) {
	w := &where{}
	total, err := db.count(ctx, "users", w)
	if err != nil {
		return nil, err
	}

	pageSQL, args := w.page(limit, offset)
	query := `SELECT ` + userColumns + ` FROM users` + w.sql() + ` ORDER BY email` + pageSQL
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &Page[*User]{Items: users, Total: total, Limit: limit, Offset: offset}, nil
}
