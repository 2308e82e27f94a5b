// Package database provides Postgres persistence for stores, users,
// subscriptions, alerts and their delivery audit records.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// Postgres error codes the repository translates.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a create hits a unique constraint.
	ErrAlreadyExists = errors.New("already exists")
	// ErrDuplicateAlert is returned when an alert_uuid was already received.
	ErrDuplicateAlert = errors.New("alert with this alert uuid already exists")
	// ErrStoreNotFound is returned when an alert references an unknown store.
	ErrStoreNotFound = errors.New("store not found")
	// ErrInvalidReference is returned when a create references a missing user or store.
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// DB wraps a database connection.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection using the provided DSN.
func NewDB(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// NewFromConn wraps an already opened connection.
func NewFromConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		slog.Info("Closing database connection")
		return db.conn.Close()
	}
	return nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	slog.Info("Database schema applied")
	return nil
}

// pqCode returns the Postgres error code carried by err, if any.
func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// nullIfEmpty stores empty optional strings as NULL so partial unique indexes ignore them.
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// where accumulates optional filter clauses and their positional args.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(column string, value any) {
	w.args = append(w.args, value)
	w.clauses = append(w.clauses, fmt.Sprintf("%s = $%d", column, len(w.args)))
}

func (w *where) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	s := " WHERE " + w.clauses[0]
	for _, c := range w.clauses[1:] {
		s += " AND " + c
	}
	return s
}

// page appends LIMIT/OFFSET placeholders and returns the clause with its args.
func (w *where) page(limit, offset int) (string, []any) {
	args := append(append([]any{}, w.args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

// count runs a COUNT(*) over table with the accumulated filters.
func (db *DB) count(ctx context.Context, table string, w *where) (int64, error) {
	var total int64
	query := "SELECT COUNT(*) FROM " + table + w.sql()
	if err := db.conn.QueryRowContext(ctx, query, w.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return total, nil
}

// resetOrder lists tables children first.
var resetOrder = []string{
	"sent_notifications",
	"alerts",
	"user_alert_subscriptions",
	"users",
	"stores",
}

// Reset deletes every row from every table. Used by the seed tool.
func (db *DB) Reset(ctx context.Context) error {
	for _, table := range resetOrder {
		if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
