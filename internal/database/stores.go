package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateStore inserts a store. Returns ErrAlreadyExists if the location is taken.
func (db *DB) CreateStore(ctx context.Context, location, name string) (*Store, error) {
	query := `
		INSERT INTO stores (location, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING location, name, created_at
	`
	var s Store
	err := db.conn.QueryRowContext(ctx, query, location, name).Scan(&s.Location, &s.Name, &s.CreatedAt)
	if err != nil {
		if pqCode(err) == codeUniqueViolation {
			return nil, fmt.Errorf("store %s: %w", location, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	return &s, nil
}

// GetStore retrieves a store by location.
func (db *DB) GetStore(ctx context.Context, location string) (*Store, error) {
	query := `
		SELECT location, name, created_at
		FROM stores
		WHERE location = $1
	`
	var s Store
	err := db.conn.QueryRowContext(ctx, query, location).Scan(&s.Location, &s.Name, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store %s: %w", location, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return &s, nil
}

// ListStores retrieves stores ordered by location.
func (db *DB) ListStores(ctx context.Context, limit, offset int) (*Page[*Store], error) {
	w := &where{}
	total, err := db.count(ctx, "stores", w)
	if err != nil {
		return nil, err
	}

	pageSQL, args := w.page(limit, offset)
	query := `SELECT location, name, created_at FROM stores` + w.sql() + ` ORDER BY location` + pageSQL
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	stores := []*Store{}
	for rows.Next() {
		var s Store
		if err := rows.Scan(&s.Location, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	return &Page[*Store]{Items: stores, Total: total, Limit: limit, Offset: offset}, nil
}
