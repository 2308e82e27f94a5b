package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const notificationColumns = `id, alert_uuid, user_email, method, sent, sent_at, info`

// CreateSentNotification records a pending delivery attempt with sent=false.
// It is written before the channel is invoked so an interrupted delivery
// still leaves an audit row.
func (db *DB) CreateSentNotification(ctx context.Context, alertUUID, userEmail, method string) (*SentNotification, error) {
	query := `
		INSERT INTO sent_notifications (id, alert_uuid, user_email, method, sent, sent_at, info)
		VALUES ($1, $2, $3, $4, FALSE, NOW(), '')
		RETURNING ` + notificationColumns
	var n SentNotification
	err := db.conn.QueryRowContext(ctx, query, uuid.NewString(), alertUUID, userEmail, method).Scan(
		&n.ID,
		&n.AlertUUID,
		&n.UserEmail,
		&n.Method,
		&n.Sent,
		&n.SentAt,
		&n.Info,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sent notification: %w", err)
	}
	return &n, nil
}

// UpdateNotificationOutcome stores the result of a delivery attempt.
func (db *DB) UpdateNotificationOutcome(ctx context.Context, id string, sent bool, info string) error {
	query := `
		UPDATE sent_notifications
		SET sent = $2, info = $3
		WHERE id = $1
	`
	result, err := db.conn.ExecContext(ctx, query, id, sent, info)
	if err != nil {
		return fmt.Errorf("failed to update sent notification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("sent notification %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListNotifications retrieves audit records newest first.
func (db *DB) ListNotifications(ctx context.Context, filter NotificationFilter, limit, offset int) (*Page[*SentNotification], error) {
	w := &where{}
	if filter.AlertUUID != nil {
		w.add("alert_uuid", *filter.AlertUUID)
	}
	if filter.Sent != nil {
		w.add("sent", *filter.Sent)
	}

	total, err := db.count(ctx, "sent_notifications", w)
	if err != nil {
		return nil, err
	}

	pageSQL, args := w.page(limit, offset)
	query := `SELECT ` + notificationColumns + ` FROM sent_notifications` + w.sql() + ` ORDER BY sent_at DESC` + pageSQL
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*SentNotification{}
	for rows.Next() {
		var n SentNotification
		if err := rows.Scan(&n.ID, &n.AlertUUID, &n.UserEmail, &n.Method, &n.Sent, &n.SentAt, &n.Info); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return &Page[*SentNotification]{Items: notifications, Total: total, Limit: limit, Offset: offset}, nil
}
