// Package dispatch runs the alert pipeline: accept an alert, classify it,
// resolve subscribers and deliver through the registered channels.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"alert-dispatcher/internal/channel"
	"alert-dispatcher/internal/database"
	"alert-dispatcher/internal/events"
	"alert-dispatcher/internal/metrics"
	"alert-dispatcher/internal/producer"
	"alert-dispatcher/internal/severity"
)

const (
	// DefaultWorkers caps concurrent deliveries across all alerts.
	DefaultWorkers = 10
	// DefaultDeliveryTimeout bounds one delivery including its retries.
	DefaultDeliveryTimeout = 90 * time.Second
)

// Delivery statuses.
const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Repository is the persistence the dispatcher needs. *database.DB satisfies it.
type Repository interface {
	CreateAlert(ctx context.Context, alert *database.Alert) error
	FindSubscriptions(ctx context.Context, location string, preferences []string) ([]*database.Recipient, error)
	CreateSentNotification(ctx context.Context, alertUUID, userEmail, method string) (*database.SentNotification, error)
	UpdateNotificationOutcome(ctx context.Context, id string, sent bool, info string) error
}

// Publisher publishes dispatch summaries.
type Publisher interface {
	Publish(ctx context.Context, e *events.AlertDispatched) error
}

// Config tunes delivery concurrency.
type Config struct {
	Workers         int           // Max in-flight deliveries (<=0 uses DefaultWorkers)
	DeliveryTimeout time.Duration // Per-delivery timeout (<=0 uses DefaultDeliveryTimeout)
	Async           bool          // Return after resolution and deliver in the background
}

// Delivery is the outcome of one (user, channel) pair.
type Delivery struct {
	NotificationID string `json:"notification_id,omitempty"`
	UserEmail      string `json:"user"`
	Channel        string `json:"channel"`
	Status         string `json:"status"`
	Info           string `json:"info"`
}

// Result summarizes one accepted alert. Deliveries is nil in async mode.
type Result struct {
	Alert      *database.Alert `json:"alert"`
	Severity   severity.Tier   `json:"severity"`
	Outcome    string          `json:"outcome"`
	Recipients int             `json:"recipients"`
	Deliveries []Delivery      `json:"deliveries,omitempty"`
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPublisher sets the event publisher.
func WithPublisher(p Publisher) Option {
	return func(d *Dispatcher) {
		d.publisher = p
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// Dispatcher is the pipeline entry point. It is safe for concurrent use.
type Dispatcher struct {
	repo            Repository
	channels        *channel.Registry
	publisher       Publisher
	metrics         metrics.Recorder
	workers         int
	deliveryTimeout time.Duration
	async           bool

	sem chan struct{}  // dispatcher-wide delivery slots
	wg  sync.WaitGroup // background dispatches
}

// New creates a Dispatcher.
func New(repo Repository, channels *channel.Registry, cfg Config, opts ...Option) *Dispatcher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	timeout := cfg.DeliveryTimeout
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}

	d := &Dispatcher{
		repo:            repo,
		channels:        channels,
		publisher:       producer.NoOp{},
		metrics:         metrics.NoOp{},
		workers:         workers,
		deliveryTimeout: timeout,
		async:           cfg.Async,
		sem:             make(chan struct{}, workers),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch accepts an alert and delivers it to every subscriber.
// A *ValidationError means the alert was rejected and nothing was stored.
// Any other error is an infrastructure failure before the alert was stored.
// Once the alert is stored Dispatch always returns a Result; delivery
// failures are recorded per notification and never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, in AlertInput) (*Result, error) {
	start := time.Now()
	d.metrics.RecordReceived()

	alert, err := d.accept(ctx, in)
	if err != nil {
		return nil, err
	}

	tier := severity.Classify(alert.Label)
	slog.Info("Alert accepted",
		"alert_uuid", alert.AlertUUID,
		"location", alert.Location,
		"label", alert.Label,
		"severity", tier,
	)

	recipients, err := d.repo.FindSubscriptions(ctx, alert.Location, severity.Filter(tier))
	if err != nil {
		slog.Error("Failed to resolve subscriptions",
			"alert_uuid", alert.AlertUUID,
			"location", alert.Location,
			"error", err,
		)
		d.metrics.RecordError()
		recipients = nil
	}

	res := &Result{
		Alert:      alert,
		Severity:   tier,
		Outcome:    events.OutcomeDispatched,
		Recipients: len(recipients),
	}

	if len(recipients) == 0 {
		res.Outcome = events.OutcomeNoRecipients
		d.metrics.RecordNoRecipients()
		slog.Info("No subscriptions for alert", "alert_uuid", alert.AlertUUID, "location", alert.Location)
		d.complete(ctx, res, nil, start)
		return res, nil
	}

	if d.async {
		bg := context.WithoutCancel(ctx)
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			deliveries := d.deliverAll(bg, alert, recipients)
			d.complete(bg, res, deliveries, start)
		}()
		return res, nil
	}

	res.Deliveries = d.deliverAll(ctx, alert, recipients)
	d.complete(context.WithoutCancel(ctx), res, res.Deliveries, start)
	return res, nil
}

// Wait blocks until background dispatches finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// accept validates the input and stores the alert.
func (d *Dispatcher) accept(ctx context.Context, in AlertInput) (*database.Alert, error) {
	if verr := in.Validate(); verr != nil {
		d.metrics.RecordRejected()
		slog.Warn("Alert rejected", "alert_uuid", in.AlertUUID, "error", verr)
		return nil, verr
	}

	alert := &database.Alert{
		AlertUUID:   strings.TrimSpace(in.AlertUUID),
		URL:         in.URL,
		Location:    strings.TrimSpace(in.Location),
		Label:       severity.Normalize(in.Label),
		TimeSpotted: in.TimeSpotted.Value,
	}

	err := d.repo.CreateAlert(ctx, alert)
	switch {
	case err == nil:
		return alert, nil
	case errors.Is(err, database.ErrDuplicateAlert):
		d.metrics.RecordRejected()
		slog.Warn("Duplicate alert rejected", "alert_uuid", alert.AlertUUID)
		return nil, fieldError(FieldAlertUUID, MsgDuplicateAlert)
	case errors.Is(err, database.ErrStoreNotFound):
		d.metrics.RecordRejected()
		slog.Warn("Alert for unknown store rejected", "alert_uuid", alert.AlertUUID, "location", alert.Location)
		return nil, fieldError(FieldLocation, UnknownStore(alert.Location))
	default:
		d.metrics.RecordError()
		return nil, fmt.Errorf("failed to store alert: %w", err)
	}
}

// deliverAll runs one delivery per recipient on up to Workers goroutines.
// Results are returned in recipient order.
func (d *Dispatcher) deliverAll(ctx context.Context, alert *database.Alert, recipients []*database.Recipient) []Delivery {
	results := make([]Delivery, len(recipients))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < min(d.workers, len(recipients)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = d.deliver(ctx, alert, recipients[idx])
			}
		}()
	}

	for idx := range recipients {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results
}

// deliver records and attempts one notification. It never affects sibling
// deliveries or the alert row.
func (d *Dispatcher) deliver(ctx context.Context, alert *database.Alert, rcpt *database.Recipient) Delivery {
	d.sem <- struct{}{}
	defer func() { <-d.sem }()

	var email string
	if rcpt.User != nil {
		email = rcpt.User.Email
	}
	out := Delivery{UserEmail: email, Channel: rcpt.Channel}

	notif, err := d.repo.CreateSentNotification(ctx, alert.AlertUUID, email, rcpt.Channel)
	if err != nil {
		slog.Error("Failed to record notification",
			"alert_uuid", alert.AlertUUID,
			"user_email", email,
			"channel", rcpt.Channel,
			"error", err,
		)
		d.metrics.RecordError()
		d.metrics.RecordFailed(rcpt.Channel)
		out.Status = StatusFailed
		out.Info = fmt.Sprintf("Failed to record notification: %v", err)
		return out
	}
	out.NotificationID = notif.ID

	var res channel.Result
	ch, ok := d.channels.Get(rcpt.Channel)
	if !ok {
		res = channel.Failure(fmt.Sprintf("Notification channel %s not found", rcpt.Channel))
		out.Status = StatusSkipped
		d.metrics.RecordSkipped(rcpt.Channel)
		slog.Error("Notification channel not found",
			"alert_uuid", alert.AlertUUID,
			"user_email", email,
			"channel", rcpt.Channel,
		)
	} else {
		sendCtx, cancel := context.WithTimeout(ctx, d.deliveryTimeout)
		res = ch.Send(sendCtx, rcpt.User, alert)
		cancel()

		if res.Success {
			out.Status = StatusSent
			d.metrics.RecordSent(rcpt.Channel)
		} else {
			out.Status = StatusFailed
			d.metrics.RecordFailed(rcpt.Channel)
			slog.Error("Notification delivery failed",
				"alert_uuid", alert.AlertUUID,
				"user_email", email,
				"channel", rcpt.Channel,
				"info", res.Info,
			)
		}
	}
	out.Info = res.Info

	// The outcome is written even if the caller went away after Send.
	if err := d.repo.UpdateNotificationOutcome(context.WithoutCancel(ctx), notif.ID, res.Success, res.Info); err != nil {
		slog.Error("Failed to update notification outcome",
			"notification_id", notif.ID,
			"alert_uuid", alert.AlertUUID,
			"error", err,
		)
		d.metrics.RecordError()
	}

	return out
}

// complete publishes the AlertDispatched event and records latency.
func (d *Dispatcher) complete(ctx context.Context, res *Result, deliveries []Delivery, start time.Time) {
	e := &events.AlertDispatched{
		SchemaVersion: events.SchemaVersion,
		AlertUUID:     res.Alert.AlertUUID,
		Location:      res.Alert.Location,
		Label:         res.Alert.Label,
		Severity:      string(res.Severity),
		Outcome:       res.Outcome,
		Recipients:    res.Recipients,
		DispatchedAt:  time.Now().Unix(),
	}
	for _, del := range deliveries {
		switch del.Status {
		case StatusSent:
			e.Sent++
		case StatusSkipped:
			e.Skipped++
		default:
			e.Failed++
		}
	}

	if err := d.publisher.Publish(ctx, e); err != nil {
		slog.Error("Failed to publish alert dispatched event", "alert_uuid", e.AlertUUID, "error", err)
		d.metrics.RecordError()
	} else {
		d.metrics.RecordPublished()
	}

	d.metrics.RecordProcessed(time.Since(start))
	slog.Info("Alert dispatch completed",
		"alert_uuid", e.AlertUUID,
		"outcome", e.Outcome,
		"recipients", e.Recipients,
		"sent", e.Sent,
		"failed", e.Failed,
		"skipped", e.Skipped,
	)
}
