package handlers

import (
	"context"

	"alert-dispatcher/internal/database"
	"alert-dispatcher/internal/dispatch"
	"alert-dispatcher/pkg/metrics"
)

// Repository defines the database operations used by the administrative API.
// This allows handlers to be tested without a real database.
type Repository interface {
	// Store operations
	CreateStore(ctx context.Context, location, name string) (*database.Store, error)
	GetStore(ctx context.Context, location string) (*database.Store, error)
	ListStores(ctx context.Context, limit, offset int) (*database.Page[*database.Store], error)

	// User operations
	CreateUser(ctx context.Context, email, phone, apiUID string) (*database.User, error)
	GetUser(ctx context.Context, email string) (*database.User, error)
	ListUsers(ctx context.Context, limit, offset int) (*database.Page[*database.User], error)

	// Subscription operations
	CreateSubscription(ctx context.Context, userEmail, storeLocation, preference, channel string) (*database.Subscription, error)
	ListSubscriptions(ctx context.Context, filter database.SubscriptionFilter, limit, offset int) (*database.Page[*database.Subscription], error)

	// Audit operations
	ListAlerts(ctx context.Context, location *string, limit, offset int) (*database.Page[*database.Alert], error)
	ListNotifications(ctx context.Context, filter database.NotificationFilter, limit, offset int) (*database.Page[*database.SentNotification], error)
}

// AlertDispatcher runs the alert pipeline. *dispatch.Dispatcher satisfies it.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, in dispatch.AlertInput) (*dispatch.Result, error)
}

// ChannelLister lists registered channel keys. *channel.Registry satisfies it.
type ChannelLister interface {
	List() []string
}

// MetricsReader reads service metrics snapshots. *metrics.Reader satisfies it.
type MetricsReader interface {
	GetServiceMetrics(ctx context.Context, serviceName string) (*metrics.ServiceMetrics, error)
	GetAllServiceMetrics(ctx context.Context) (map[string]*metrics.ServiceMetrics, error)
}
