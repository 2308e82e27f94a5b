package handlers

import (
	"context"
	"time"

	"alert-dispatcher/internal/database"
	"alert-dispatcher/internal/dispatch"
	"alert-dispatcher/pkg/metrics"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	CreateStoreFn        func(ctx context.Context, location, name string) (*database.Store, error)
	GetStoreFn           func(ctx context.Context, location string) (*database.Store, error)
	ListStoresFn         func(ctx context.Context, limit, offset int) (*database.Page[*database.Store], error)
	CreateUserFn         func(ctx context.Context, email, phone, apiUID string) (*database.User, error)
	GetUserFn            func(ctx context.Context, email string) (*database.User, error)
	ListUsersFn          func(ctx context.Context, limit, offset int) (*database.Page[*database.User], error)
	CreateSubscriptionFn func(ctx context.Context, userEmail, storeLocation, preference, channel string) (*database.Subscription, error)
	ListSubscriptionsFn  func(ctx context.Context, filter database.SubscriptionFilter, limit, offset int) (*database.Page[*database.Subscription], error)
	ListAlertsFn         func(ctx context.Context, location *string, limit, offset int) (*database.Page[*database.Alert], error)
	ListNotificationsFn  func(ctx context.Context, filter database.NotificationFilter, limit, offset int) (*database.Page[*database.SentNotification], error)
}

func (m *mockRepository) CreateStore(ctx context.Context, location, name string) (*database.Store, error) {
	if m.CreateStoreFn != nil {
		return m.CreateStoreFn(ctx, location, name)
	}
	return &database.Store{Location: location, Name: name, CreatedAt: time.Now()}, nil
}

func (m *mockRepository) GetStore(ctx context.Context, location string) (*database.Store, error) {
	if m.GetStoreFn != nil {
		return m.GetStoreFn(ctx, location)
	}
	return &database.Store{Location: location, Name: "Test"}, nil
}

func (m *mockRepository) ListStores(ctx context.Context, limit, offset int) (*database.Page[*database.Store], error) {
	if m.ListStoresFn != nil {
		return m.ListStoresFn(ctx, limit, offset)
	}
	return &database.Page[*database.Store]{Items: []*database.Store{}, Limit: limit, Offset: offset}, nil
}

func (m *mockRepository) CreateUser(ctx context.Context, email, phone, apiUID string) (*database.User, error) {
	if m.CreateUserFn != nil {
		return m.CreateUserFn(ctx, email, phone, apiUID)
	}
	return &database.User{Email: email, Phone: phone, APIUID: apiUID, CreatedAt: time.Now()}, nil
}

func (m *mockRepository) GetUser(ctx context.Context, email string) (*database.User, error) {
	if m.GetUserFn != nil {
		return m.GetUserFn(ctx, email)
	}
	return &database.User{Email: email}, nil
}

func (m *mockRepository) ListUsers(ctx context.Context, limit, offset int) (*database.Page[*database.User], error) {
	if m.ListUsersFn != nil {
		return m.ListUsersFn(ctx, limit, offset)
	}
	return &database.Page[*database.User]{Items: []*database.User{}, Limit: limit, Offset: offset}, nil
}

func (m *mockRepository) CreateSubscription(ctx context.Context, userEmail, storeLocation, preference, channel string) (*database.Subscription, error) {
	if m.CreateSubscriptionFn != nil {
		return m.CreateSubscriptionFn(ctx, userEmail, storeLocation, preference, channel)
	}
	return &database.Subscription{ID: 1, UserEmail: userEmail, StoreLocation: storeLocation, AlertPreference: preference, NotificationChannel: channel}, nil
}

func (m *mockRepository) ListSubscriptions(ctx context.Context, filter database.SubscriptionFilter, limit, offset int) (*database.Page[*database.Subscription], error) {
	if m.ListSubscriptionsFn != nil {
		return m.ListSubscriptionsFn(ctx, filter, limit, offset)
	}
	return &database.Page[*database.Subscription]{Items: []*database.Subscription{}, Limit: limit, Offset: offset}, nil
}

func (m *mockRepository) ListAlerts(ctx context.Context, location *string, limit, offset int) (*database.Page[*database.Alert], error) {
	if m.ListAlertsFn != nil {
		return m.ListAlertsFn(ctx, location, limit, offset)
	}
	return &database.Page[*database.Alert]{Items: []*database.Alert{}, Limit: limit, Offset: offset}, nil
}

func (m *mockRepository) ListNotifications(ctx context.Context, filter database.NotificationFilter, limit, offset int) (*database.Page[*database.SentNotification], error) {
	if m.ListNotificationsFn != nil {
		return m.ListNotificationsFn(ctx, filter, limit, offset)
	}
	return &database.Page[*database.SentNotification]{Items: []*database.SentNotification{}, Limit: limit, Offset: offset}, nil
}

// mockDispatcher implements AlertDispatcher for testing.
type mockDispatcher struct {
	DispatchFn func(ctx context.Context, in dispatch.AlertInput) (*dispatch.Result, error)
	got        []dispatch.AlertInput
}

func (m *mockDispatcher) Dispatch(ctx context.Context, in dispatch.AlertInput) (*dispatch.Result, error) {
	m.got = append(m.got, in)
	if m.DispatchFn != nil {
		return m.DispatchFn(ctx, in)
	}
	return &dispatch.Result{Outcome: "dispatched", Recipients: 1}, nil
}

type mockChannels []string

func (m mockChannels) List() []string { return m }

// mockMetricsReader implements MetricsReader for testing.
type mockMetricsReader struct {
	GetServiceMetricsFn    func(ctx context.Context, name string) (*metrics.ServiceMetrics, error)
	GetAllServiceMetricsFn func(ctx context.Context) (map[string]*metrics.ServiceMetrics, error)
}

func (m *mockMetricsReader) GetServiceMetrics(ctx context.Context, name string) (*metrics.ServiceMetrics, error) {
	if m.GetServiceMetricsFn != nil {
		return m.GetServiceMetricsFn(ctx, name)
	}
	return &metrics.ServiceMetrics{ServiceName: name, Status: "healthy"}, nil
}

func (m *mockMetricsReader) GetAllServiceMetrics(ctx context.Context) (map[string]*metrics.ServiceMetrics, error) {
	if m.GetAllServiceMetricsFn != nil {
		return m.GetAllServiceMetricsFn(ctx)
	}
	return map[string]*metrics.ServiceMetrics{}, nil
}
