package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

const subscriptionColumns = `id, user_email, store_location, alert_preference, notification_channel, created_at`

// CreateSubscription inserts a subscription. Duplicate rows are allowed.
// Returns ErrInvalidReference when the user or store does not exist.
func (db *DB) CreateSubscription(ctx context.Context, userEmail, storeLocation, preference, channel string) (*Subscription, error) {
	query := `
		INSERT INTO user_alert_subscriptions (user_email, store_location, alert_preference, notification_channel, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING ` + subscriptionColumns
	var s Subscription
	err := db.conn.QueryRowContext(ctx, query, userEmail, storeLocation, preference, channel).Scan(
		&s.ID,
		&s.UserEmail,
		&s.StoreLocation,
		&s.AlertPreference,
		&s.NotificationChannel,
		&s.CreatedAt,
	)
	if err != nil {
		if pqCode(err) == codeForeignKeyViolation {
			return nil, fmt.Errorf("subscription for %s at %s: %w", userEmail, storeLocation, ErrInvalidReference)
		}
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return &s, nil
}

// ListSubscriptions retrieves subscriptions ordered by id.
func (db *DB) ListSubscriptions(ctx context.Context, filter SubscriptionFilter, limit, offset int) (*Page[*Subscription], error) {
	w := &where{}
	if filter.StoreLocation != nil {
		w.add("store_location", *filter.StoreLocation)
	}
	if filter.UserEmail != nil {
		w.add("user_email", *filter.UserEmail)
	}

	total, err := db.count(ctx, "user_alert_subscriptions", w)
	if err != nil {
		return nil, err
	}

	pageSQL, args := w.page(limit, offset)
	query := `SELECT ` + subscriptionColumns + ` FROM user_alert_subscriptions` + w.sql() + ` ORDER BY id` + pageSQL
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []*Subscription{}
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(
			&s.ID,
			&s.UserEmail,
			&s.StoreLocation,
			&s.AlertPreference,
			&s.NotificationChannel,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return &Page[*Subscription]{Items: subs, Total: total, Limit: limit, Offset: offset}, nil
}

// FindSubscriptions returns one Recipient per subscription row for the store
// whose preference is in preferences. Duplicate rows are returned as-is.
func (db *DB) FindSubscriptions(ctx context.Context, location string, preferences []string) ([]*Recipient, error) {
	query := `
		SELECT s.id, s.notification_channel, u.email, u.phone, u.api_uid, u.created_at
		FROM user_alert_subscriptions s
		JOIN users u ON u.email = s.user_email
		WHERE s.store_location = $1 AND s.alert_preference = ANY($2)
		ORDER BY s.id
	`
	rows, err := db.conn.QueryContext(ctx, query, location, pq.Array(preferences))
	if err != nil {
		return nil, fmt.Errorf("failed to find subscriptions: %w", err)
	}
	defer rows.Close()

	var recipients []*Recipient
	for rows.Next() {
		var (
			r      Recipient
			u      User
			phone  sql.NullString
			apiUID sql.NullString
		)
		if err := rows.Scan(&r.SubscriptionID, &r.Channel, &u.Email, &phone, &apiUID, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		u.Phone = phone.String
		u.APIUID = apiUID.String
		r.User = &u
		recipients = append(recipients, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to find subscriptions: %w", err)
	}
	return recipients, nil
}
