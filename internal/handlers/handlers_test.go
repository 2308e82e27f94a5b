package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"alert-dispatcher/internal/database"
	"alert-dispatcher/internal/dispatch"
	"alert-dispatcher/internal/events"
	"alert-dispatcher/internal/metrics"
	pkgmetrics "alert-dispatcher/pkg/metrics"
)

func newTestHandlers(repo Repository, d AlertDispatcher) *Handlers {
	if repo == nil {
		repo = &mockRepository{}
	}
	if d == nil {
		d = &mockDispatcher{}
	}
	return NewHandlersWithDeps(repo, d, mockChannels{"api"}, nil, nil)
}

func doRequest(handler http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestNewHandlers(t *testing.T) {
	h := NewHandlers(nil, nil, nil)
	if h.metrics == nil {
		t.Error("metrics should default to NoOp")
	}
	if h.metricsReader != nil {
		t.Error("metricsReader should be nil without WithMetricsReader")
	}

	var nilReader *pkgmetrics.Reader
	h = NewHandlers(nil, nil, nil, WithMetricsReader(nilReader), WithMetrics(nil))
	if h.metricsReader != nil {
		t.Error("nil reader must not be stored as a non-nil interface")
	}
	if _, ok := h.Metrics().(metrics.NoOp); !ok {
		t.Errorf("Metrics() = %T, want NoOp", h.Metrics())
	}
}

// validatingDispatch rejects invalid input the way the dispatcher does.
func validatingDispatch(ctx context.Context, in dispatch.AlertInput) (*dispatch.Result, error) {
	if verr := in.Validate(); verr != nil {
		return nil, verr
	}
	return &dispatch.Result{Outcome: events.OutcomeDispatched}, nil
}

func TestReceiveAlert(t *testing.T) {
	validBody := `{"url":"https://cdn.example.com/clip.mp4","location":"store-1","alert_uuid":"uuid-1","label":"theft","time_spotted":1700000000}`
	longUUIDBody := `{"url":"https://cdn.example.com/clip.mp4","location":"store-1","alert_uuid":"` + strings.Repeat("u", 101) + `","label":"theft","time_spotted":1700000000}`

	tests := []struct {
		name         string
		method       string
		body         string
		dispatchFn   func(ctx context.Context, in dispatch.AlertInput) (*dispatch.Result, error)
		wantStatus   int
		wantHeader   string
		wantContains string
	}{
		{
			name:         "dispatched",
			method:       http.MethodPost,
			body:         validBody,
			wantStatus:   http.StatusOK,
			wantHeader:   StatusAlertReceived,
			wantContains: `"status":"Alert correctly received"`,
		},
		{
			name:   "no subscriptions",
			method: http.MethodPost,
			body:   validBody,
			dispatchFn: func(ctx context.Context, in dispatch.AlertInput) (*dispatch.Result, error) {
				return &dispatch.Result{Outcome: events.OutcomeNoRecipients}, nil
			},
			wantStatus: http.StatusNoContent,
			wantHeader: StatusNoSubscriptions,
		},
		{
			name:   "validation error",
			method: http.MethodPost,
			body:   validBody,
			dispatchFn: func(ctx context.Context, in dispatch.AlertInput) (*dispatch.Result, error) {
				return nil, &dispatch.ValidationError{Fields: map[string][]string{"alert_uuid": {dispatch.MsgDuplicateAlert}}}
			},
			wantStatus:   http.StatusBadRequest,
			wantContains: `"alert_uuid":["alert with this alert uuid already exists."]`,
		},
		{
			name:   "infrastructure error",
			method: http.MethodPost,
			body:   validBody,
			dispatchFn: func(ctx context.Context, in dispatch.AlertInput) (*dispatch.Result, error) {
				return nil, errors.New("connection refused")
			},
			wantStatus:   http.StatusInternalServerError,
			wantContains: "Failed to process alert",
		},
		{
			name:         "uuid too long",
			method:       http.MethodPost,
			body:         longUUIDBody,
			dispatchFn:   validatingDispatch,
			wantStatus:   http.StatusBadRequest,
			wantContains: `"alert_uuid":["Ensure this field has no more than 100 characters."]`,
		},
		{
			name:         "numeric uuid accepted",
			method:       http.MethodPost,
			body:         `{"url":"https://cdn.example.com/clip.mp4","location":"store-1","alert_uuid":123,"label":"theft","time_spotted":1700000000}`,
			dispatchFn:   validatingDispatch,
			wantStatus:   http.StatusOK,
			wantContains: `"status":"Alert correctly received"`,
		},
		{
			name:         "wrongly typed field",
			method:       http.MethodPost,
			body:         `{"url":"https://cdn.example.com/clip.mp4","location":"store-1","alert_uuid":"uuid-1","label":false,"time_spotted":1700000000}`,
			dispatchFn:   validatingDispatch,
			wantStatus:   http.StatusBadRequest,
			wantContains: `"label":["Not a valid string."]`,
		},
		{
			name:       "invalid json",
			method:     http.MethodPost,
			body:       `{"url":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrong method",
			method:     http.MethodGet,
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDispatcher{DispatchFn: tt.dispatchFn}
			h := newTestHandlers(nil, d)

			rec := doRequest(h.ReceiveAlert, tt.method, "/webhooks/alerts/", tt.body)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantHeader != "" && rec.Header().Get(DispatchStatusHeader) != tt.wantHeader {
				t.Errorf("%s = %q, want %q", DispatchStatusHeader, rec.Header().Get(DispatchStatusHeader), tt.wantHeader)
			}
			if tt.wantContains != "" && !strings.Contains(rec.Body.String(), tt.wantContains) {
				t.Errorf("body = %q, want containing %q", rec.Body.String(), tt.wantContains)
			}
		})
	}
}

func TestReceiveAlert_DecodesInput(t *testing.T) {
	d := &mockDispatcher{}
	h := newTestHandlers(nil, d)

	body := `{"url":"https://cdn.example.com/clip.mp4","location":"store-1","alert_uuid":"uuid-1","label":"Theft","time_spotted":"1700000000.5"}`
	rec := doRequest(h.ReceiveAlert, http.MethodPost, "/webhooks/alerts/", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if len(d.got) != 1 {
		t.Fatalf("Dispatch called %d times", len(d.got))
	}
	in := d.got[0]
	if in.AlertUUID != "uuid-1" || in.Label != "Theft" || !in.TimeSpotted.Valid || in.TimeSpotted.Value != 1700000000.5 {
		t.Errorf("input = %+v", in)
	}
}

func TestCreateStore(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createFn   func(ctx context.Context, location, name string) (*database.Store, error)
		wantStatus int
	}{
		{name: "created", body: `{"location":"store-1","name":"Main St"}`, wantStatus: http.StatusCreated},
		{name: "missing location", body: `{"name":"Main St"}`, wantStatus: http.StatusBadRequest},
		{name: "missing name", body: `{"location":"store-1"}`, wantStatus: http.StatusBadRequest},
		{
			name: "duplicate",
			body: `{"location":"store-1","name":"Main St"}`,
			createFn: func(ctx context.Context, location, name string) (*database.Store, error) {
				return nil, fmt.Errorf("store %s: %w", location, database.ErrAlreadyExists)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "database failure",
			body: `{"location":"store-1","name":"Main St"}`,
			createFn: func(ctx context.Context, location, name string) (*database.Store, error) {
				return nil, errors.New("connection reset")
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(&mockRepository{CreateStoreFn: tt.createFn}, nil)
			rec := doRequest(h.CreateStore, http.MethodPost, "/api/v1/stores", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestGetStore_NotFound(t *testing.T) {
	repo := &mockRepository{GetStoreFn: func(ctx context.Context, location string) (*database.Store, error) {
		return nil, fmt.Errorf("store %s: %w", location, database.ErrNotFound)
	}}
	h := newTestHandlers(repo, nil)

	rec := doRequest(h.GetStore, http.MethodGet, "/api/v1/stores?location=store-9", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListStores_Pagination(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &mockRepository{ListStoresFn: func(ctx context.Context, limit, offset int) (*database.Page[*database.Store], error) {
		gotLimit, gotOffset = limit, offset
		return &database.Page[*database.Store]{Items: []*database.Store{{Location: "store-1"}}, Total: 7, Limit: limit, Offset: offset}, nil
	}}
	h := newTestHandlers(repo, nil)

	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{query: "", wantLimit: 50, wantOffset: 0},
		{query: "?limit=5&offset=10", wantLimit: 5, wantOffset: 10},
		{query: "?limit=-1&offset=abc", wantLimit: 50, wantOffset: 0},
		{query: "?limit=10000", wantLimit: 500, wantOffset: 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := doRequest(h.ListStores, http.MethodGet, "/api/v1/stores"+tt.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if gotLimit != tt.wantLimit || gotOffset != tt.wantOffset {
				t.Errorf("limit=%d offset=%d, want %d/%d", gotLimit, gotOffset, tt.wantLimit, tt.wantOffset)
			}

			var page struct {
				Items []map[string]any `json:"items"`
				Total int64            `json:"total"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if page.Total != 7 || len(page.Items) != 1 {
				t.Errorf("page = %+v", page)
			}
		})
	}
}

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createFn   func(ctx context.Context, email, phone, apiUID string) (*database.User, error)
		wantStatus int
	}{
		{name: "created", body: `{"email":"guard@example.com","phone":"+15555550100","api_uid":"uid-1"}`, wantStatus: http.StatusCreated},
		{name: "email only", body: `{"email":"guard@example.com"}`, wantStatus: http.StatusCreated},
		{name: "missing email", body: `{"phone":"+15555550100"}`, wantStatus: http.StatusBadRequest},
		{name: "invalid email", body: `{"email":"guard"}`, wantStatus: http.StatusBadRequest},
		{name: "invalid json", body: `nope`, wantStatus: http.StatusBadRequest},
		{
			name: "api uid taken",
			body: `{"email":"guard@example.com","api_uid":"uid-1"}`,
			createFn: func(ctx context.Context, email, phone, apiUID string) (*database.User, error) {
				return nil, fmt.Errorf("user %s: %w", email, database.ErrAlreadyExists)
			},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(&mockRepository{CreateUserFn: tt.createFn}, nil)
			rec := doRequest(h.CreateUser, http.MethodPost, "/api/v1/users", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

// Exercises the real repository so unique violations map to 409 end to end.
func TestCreateUser_WithSQLMock(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer conn.Close()
	db := database.NewFromConn(conn)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("guard@example.com", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	h := NewHandlers(db, nil, nil)
	rec := doRequest(h.CreateUser, http.MethodPost, "/api/v1/users", `{"email":"guard@example.com"}`)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 (body %q)", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetUser(t *testing.T) {
	h := newTestHandlers(nil, nil)
	rec := doRequest(h.GetUser, http.MethodGet, "/api/v1/users?email=guard@example.com", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "guard@example.com") {
		t.Errorf("status = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestCreateSubscription(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createFn   func(ctx context.Context, userEmail, storeLocation, preference, channel string) (*database.Subscription, error)
		wantStatus int
	}{
		{
			name:       "created",
			body:       `{"user":"guard@example.com","store":"store-1","alert_preference":"Critical","notification_channel":"API"}`,
			wantStatus: http.StatusCreated,
		},
		{name: "missing user", body: `{"store":"store-1","alert_preference":"both","notification_channel":"api"}`, wantStatus: http.StatusBadRequest},
		{name: "missing store", body: `{"user":"guard@example.com","alert_preference":"both","notification_channel":"api"}`, wantStatus: http.StatusBadRequest},
		{name: "bad preference", body: `{"user":"guard@example.com","store":"store-1","alert_preference":"urgent","notification_channel":"api"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown channel", body: `{"user":"guard@example.com","store":"store-1","alert_preference":"both","notification_channel":"pager"}`, wantStatus: http.StatusBadRequest},
		{
			name: "unknown user",
			body: `{"user":"ghost@example.com","store":"store-1","alert_preference":"both","notification_channel":"api"}`,
			createFn: func(ctx context.Context, userEmail, storeLocation, preference, channel string) (*database.Subscription, error) {
				return nil, fmt.Errorf("subscription: %w", database.ErrInvalidReference)
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			createFn := tt.createFn
			if createFn == nil {
				createFn = func(ctx context.Context, userEmail, storeLocation, preference, channel string) (*database.Subscription, error) {
					got = []string{userEmail, storeLocation, preference, channel}
					return &database.Subscription{ID: 1}, nil
				}
			}
			h := newTestHandlers(&mockRepository{CreateSubscriptionFn: createFn}, nil)

			rec := doRequest(h.CreateSubscription, http.MethodPost, "/api/v1/subscriptions", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusCreated {
				want := []string{"guard@example.com", "store-1", "critical", "api"}
				if !reflect.DeepEqual(got, want) {
					t.Errorf("CreateSubscription args = %v, want %v", got, want)
				}
			}
		})
	}
}

func TestListSubscriptions_Filters(t *testing.T) {
	var got database.SubscriptionFilter
	repo := &mockRepository{ListSubscriptionsFn: func(ctx context.Context, filter database.SubscriptionFilter, limit, offset int) (*database.Page[*database.Subscription], error) {
		got = filter
		return &database.Page[*database.Subscription]{Items: []*database.Subscription{}}, nil
	}}
	h := newTestHandlers(repo, nil)

	rec := doRequest(h.ListSubscriptions, http.MethodGet, "/api/v1/subscriptions?store=store-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.StoreLocation == nil || *got.StoreLocation != "store-1" || got.UserEmail != nil {
		t.Errorf("filter = %+v", got)
	}
}

func TestListAlerts(t *testing.T) {
	var got *string
	repo := &mockRepository{ListAlertsFn: func(ctx context.Context, location *string, limit, offset int) (*database.Page[*database.Alert], error) {
		got = location
		return &database.Page[*database.Alert]{Items: []*database.Alert{}}, nil
	}}
	h := newTestHandlers(repo, nil)

	rec := doRequest(h.ListAlerts, http.MethodGet, "/api/v1/alerts?location=store-2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got == nil || *got != "store-2" {
		t.Errorf("location = %v", got)
	}
}

func TestListNotifications(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantSent   *bool
		wantAlert  string
	}{
		{name: "no filters", query: "", wantStatus: http.StatusOK},
		{name: "sent filter", query: "?sent=false&alert_uuid=uuid-1", wantStatus: http.StatusOK, wantSent: new(bool), wantAlert: "uuid-1"},
		{name: "bad sent", query: "?sent=maybe", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got database.NotificationFilter
			repo := &mockRepository{ListNotificationsFn: func(ctx context.Context, filter database.NotificationFilter, limit, offset int) (*database.Page[*database.SentNotification], error) {
				got = filter
				return &database.Page[*database.SentNotification]{Items: []*database.SentNotification{}}, nil
			}}
			h := newTestHandlers(repo, nil)

			rec := doRequest(h.ListNotifications, http.MethodGet, "/api/v1/notifications"+tt.query, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if (got.Sent == nil) != (tt.wantSent == nil) || (got.Sent != nil && *got.Sent != *tt.wantSent) {
				t.Errorf("Sent filter = %v, want %v", got.Sent, tt.wantSent)
			}
			if tt.wantAlert != "" && (got.AlertUUID == nil || *got.AlertUUID != tt.wantAlert) {
				t.Errorf("AlertUUID filter = %v", got.AlertUUID)
			}
		})
	}
}

func TestListChannels(t *testing.T) {
	h := newTestHandlers(nil, nil)
	rec := doRequest(h.ListChannels, http.MethodGet, "/api/v1/channels", "")

	var resp ChannelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(resp.Registered, []string{"api"}) {
		t.Errorf("Registered = %v", resp.Registered)
	}
	if !reflect.DeepEqual(resp.Known, []string{"api", "email", "sms"}) {
		t.Errorf("Known = %v", resp.Known)
	}
}

func TestGetServiceMetrics(t *testing.T) {
	t.Run("redis disabled", func(t *testing.T) {
		h := newTestHandlers(nil, nil)
		rec := doRequest(h.GetServiceMetrics, http.MethodGet, "/api/v1/services/metrics", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("all services include offline", func(t *testing.T) {
		h := NewHandlersWithDeps(&mockRepository{}, &mockDispatcher{}, mockChannels{}, &mockMetricsReader{}, nil)
		rec := doRequest(h.GetServiceMetrics, http.MethodGet, "/api/v1/services/metrics", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp ServiceMetricsResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if m := resp.Services[pkgmetrics.ServiceName]; m == nil || m.Status != pkgmetrics.StatusOffline {
			t.Errorf("service entry = %+v", m)
		}
	})

	t.Run("single service falls back to offline", func(t *testing.T) {
		reader := &mockMetricsReader{GetServiceMetricsFn: func(ctx context.Context, name string) (*pkgmetrics.ServiceMetrics, error) {
			return nil, fmt.Errorf("%w for service %s", pkgmetrics.ErrNoSnapshot, name)
		}}
		h := NewHandlersWithDeps(&mockRepository{}, &mockDispatcher{}, mockChannels{}, reader, nil)
		rec := doRequest(h.GetServiceMetrics, http.MethodGet, "/api/v1/services/metrics?service=other", "")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"offline"`) {
			t.Errorf("status = %d body = %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("single service read failure", func(t *testing.T) {
		reader := &mockMetricsReader{GetServiceMetricsFn: func(ctx context.Context, name string) (*pkgmetrics.ServiceMetrics, error) {
			return nil, errors.New("redis down")
		}}
		h := NewHandlersWithDeps(&mockRepository{}, &mockDispatcher{}, mockChannels{}, reader, nil)
		rec := doRequest(h.GetServiceMetrics, http.MethodGet, "/api/v1/services/metrics?service=other", "")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})

	t.Run("reader failure", func(t *testing.T) {
		reader := &mockMetricsReader{GetAllServiceMetricsFn: func(ctx context.Context) (map[string]*pkgmetrics.ServiceMetrics, error) {
			return nil, errors.New("redis down")
		}}
		h := NewHandlersWithDeps(&mockRepository{}, &mockDispatcher{}, mockChannels{}, reader, nil)
		rec := doRequest(h.GetServiceMetrics, http.MethodGet, "/api/v1/services/metrics", "")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}
