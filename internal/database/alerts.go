package database

import (
	"context"
	"fmt"
)

const alertColumns = `alert_uuid, url, location, label, time_spotted, received_at`

// CreateAlert inserts an alert and sets its ReceivedAt.
// The primary key on alert_uuid makes concurrent duplicates fail with
// ErrDuplicateAlert; a missing store fails with ErrStoreNotFound.
func (db *DB) CreateAlert(ctx context.Context, alert *Alert) error {
	query := `
		INSERT INTO alerts (alert_uuid, url, location, label, time_spotted, received_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING received_at
	`
	err := db.conn.QueryRowContext(ctx, query,
		alert.AlertUUID,
		alert.URL,
		alert.Location,
		alert.Label,
		alert.TimeSpotted,
	).Scan(&alert.ReceivedAt)
	if err != nil {
		switch pqCode(err) {
		case codeUniqueViolation:
			return fmt.Errorf("alert %s: %w", alert.AlertUUID, ErrDuplicateAlert)
		case codeForeignKeyViolation:
			return fmt.Errorf("alert %s at %s: %w", alert.AlertUUID, alert.Location, ErrStoreNotFound)
		}
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// ListAlerts retrieves alerts newest first, optionally filtered by location.
func (db *DB) ListAlerts(ctx context.Context, location *string, limit, offset int) (*Page[*Alert], error) {
	w := &where{}
	if location != nil {
		w.add("location", *location)
	}

	total, err := db.count(ctx, "alerts", w)
	if err != nil {
		return nil, err
	}

	pageSQL, args := w.page(limit, offset)
	query := `SELECT ` + alertColumns + ` FROM alerts` + w.sql() + ` ORDER BY received_at DESC` + pageSQL
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts := []*Alert{}
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.AlertUUID, &a.URL, &a.Location, &a.Label, &a.TimeSpotted, &a.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	return &Page[*Alert]{Items: alerts, Total: total, Limit: limit, Offset: offset}, nil
}
