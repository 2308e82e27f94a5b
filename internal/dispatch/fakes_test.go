package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"alert-dispatcher/internal/channel"
	"alert-dispatcher/internal/database"
	"alert-dispatcher/internal/events"
)

type fakeSub struct {
	user       *database.User
	store      string
	preference string
	channel    string
}

// fakeRepo is an in-memory Repository enforcing the same uniqueness and
// reference rules as the database.
type fakeRepo struct {
	mu            sync.Mutex
	stores        map[string]bool
	alerts        map[string]*database.Alert
	subs          []fakeSub
	notifications []*database.SentNotification

	createAlertErr error
	findErr        error
	createNotifErr error
	updateErr      error
}

func newFakeRepo(stores ...string) *fakeRepo {
	r := &fakeRepo{
		stores: make(map[string]bool),
		alerts: make(map[string]*database.Alert),
	}
	for _, s := range stores {
		r.stores[s] = true
	}
	return r
}

func (r *fakeRepo) subscribe(user *database.User, store, preference, ch string) {
	r.subs = append(r.subs, fakeSub{user: user, store: store, preference: preference, channel: ch})
}

func (r *fakeRepo) CreateAlert(ctx context.Context, alert *database.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createAlertErr != nil {
		return r.createAlertErr
	}
	if !r.stores[alert.Location] {
		return database.ErrStoreNotFound
	}
	if _, ok := r.alerts[alert.AlertUUID]; ok {
		return database.ErrDuplicateAlert
	}
	cp := *alert
	r.alerts[alert.AlertUUID] = &cp
	return nil
}

func (r *fakeRepo) FindSubscriptions(ctx context.Context, location string, preferences []string) ([]*database.Recipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*database.Recipient
	for i, s := range r.subs {
		if s.store != location {
			continue
		}
		for _, p := range preferences {
			if p == s.preference {
				out = append(out, &database.Recipient{SubscriptionID: int64(i + 1), User: s.user, Channel: s.channel})
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateSentNotification(ctx context.Context, alertUUID, userEmail, method string) (*database.SentNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createNotifErr != nil {
		return nil, r.createNotifErr
	}
	n := &database.SentNotification{
		ID:        uuid.NewString(),
		AlertUUID: alertUUID,
		UserEmail: userEmail,
		Method:    method,
	}
	r.notifications = append(r.notifications, n)
	cp := *n
	return &cp, nil
}

func (r *fakeRepo) UpdateNotificationOutcome(ctx context.Context, id string, sent bool, info string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.updateErr != nil {
		return r.updateErr
	}
	for _, n := range r.notifications {
		if n.ID == id {
			n.Sent = sent
			n.Info = info
			return nil
		}
	}
	return database.ErrNotFound
}

func (r *fakeRepo) alertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func (r *fakeRepo) notificationsFor(alertUUID string) []database.SentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []database.SentNotification
	for _, n := range r.notifications {
		if n.AlertUUID == alertUUID {
			out = append(out, *n)
		}
	}
	return out
}

// fakeChannel answers with fn, or success when fn is nil.
type fakeChannel struct {
	key   string
	fn    func(ctx context.Context, user *database.User, alert *database.Alert) channel.Result
	calls atomic.Int32
}

func (c *fakeChannel) Type() string { return c.key }

func (c *fakeChannel) Send(ctx context.Context, user *database.User, alert *database.Alert) channel.Result {
	c.calls.Add(1)
	if c.fn != nil {
		return c.fn(ctx, user, alert)
	}
	return channel.Success("ok " + user.Email)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*events.AlertDispatched
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, e *events.AlertDispatched) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *fakePublisher) last() *events.AlertDispatched {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

var errBoom = errors.New("boom")
