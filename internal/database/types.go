package database

import "time"

// Store is a monitored location.
type Store struct {
	Location  string    `json:"location"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a notification recipient. Phone and APIUID are optional and
// empty when unset.
type User struct {
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	APIUID    string    `json:"api_uid"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscription links a user to a store with a severity preference and a channel.
type Subscription struct {
	ID                  int64     `json:"id"`
	UserEmail           string    `json:"user"`
	StoreLocation       string    `json:"store"`
	AlertPreference     string    `json:"alert_preference"`
	NotificationChannel string    `json:"notification_channel"`
	CreatedAt           time.Time `json:"created_at"`
}

// Alert is a detector event accepted by the webhook.
type Alert struct {
	AlertUUID   string    `json:"alert_uuid"`
	URL         string    `json:"url"`
	Location    string    `json:"location"`
	Label       string    `json:"label"`
	TimeSpotted float64   `json:"time_spotted"`
	ReceivedAt  time.Time `json:"received_at"`
}

// SentNotification is the audit record of one delivery attempt.
type SentNotification struct {
	ID        string    `json:"id"`
	AlertUUID string    `json:"alert"`
	UserEmail string    `json:"user"`
	Method    string    `json:"method"`
	Sent      bool      `json:"sent"`
	SentAt    time.Time `json:"sent_at"`
	Info      string    `json:"info"`
}

// Recipient is one resolved (user, channel) pair for an alert.
type Recipient struct {
	SubscriptionID int64
	User           *User
	Channel        string
}

// Page is a paginated list result.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// NotificationFilter narrows ListNotifications. Nil fields are ignored.
type NotificationFilter struct {
	AlertUUID *string
	Sent      *bool
}

// SubscriptionFilter narrows ListSubscriptions. Nil fields are ignored.
type SubscriptionFilter struct {
	StoreLocation *string
	UserEmail     *string
}
