package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	pkgmetrics "alert-dispatcher/pkg/metrics"
)

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.RecordReceived()
	p.RecordReceived()
	p.RecordRejected()
	p.RecordNoRecipients()
	p.RecordSent("api")
	p.RecordSent("api")
	p.RecordFailed("email")
	p.RecordSkipped("sms")
	p.RecordPublished()
	p.RecordError()
	p.RecordProcessed(20 * time.Millisecond)
	p.RecordHTTPRequest("POST", "/webhooks/alerts/", 200, 5*time.Millisecond)

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"received", p.alerts.WithLabelValues("received"), 2},
		{"rejected", p.alerts.WithLabelValues("rejected"), 1},
		{"no recipients", p.alerts.WithLabelValues("no_recipients"), 1},
		{"api sent", p.notifications.WithLabelValues("api", "sent"), 2},
		{"email failed", p.notifications.WithLabelValues("email", "failed"), 1},
		{"sms skipped", p.notifications.WithLabelValues("sms", "skipped"), 1},
		{"published", p.published, 1},
		{"errors", p.errors, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if n := testutil.CollectAndCount(p.httpRequests); n != 1 {
		t.Errorf("http request series = %d, want 1", n)
	}
	if n := testutil.CollectAndCount(p.processing); n != 1 {
		t.Errorf("processing series = %d, want 1", n)
	}
}

func TestNewPrometheus_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheus(reg)

	defer func() {
		if recover() == nil {
			t.Error("second registration on the same registry should panic")
		}
	}()
	NewPrometheus(reg)
}

func TestCollectorAdapter(t *testing.T) {
	c := pkgmetrics.NewCollector(pkgmetrics.ServiceName, nil)
	a := NewCollectorAdapter(c)

	a.RecordReceived()
	a.RecordProcessed(10 * time.Millisecond)
	a.RecordRejected()
	a.RecordNoRecipients()
	a.RecordSent("api")
	a.RecordFailed("email")
	a.RecordSkipped("sms")
	a.RecordPublished()
	a.RecordError()
	a.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)

	snap := c.GetSnapshot()
	if snap.AlertsReceived != 1 || snap.AlertsDispatched != 1 || snap.EventsPublished != 1 || snap.ProcessingErrors != 1 {
		t.Errorf("core counters = %+v", snap)
	}
	if snap.AlertsRejected != 1 || snap.AlertsNoRecipients != 1 || snap.HTTPRequests != 1 {
		t.Errorf("intake counters = %+v", snap)
	}
	want := map[string]pkgmetrics.ChannelCounts{
		"api":   {Sent: 1},
		"email": {Failed: 1},
		"sms":   {Skipped: 1},
	}
	for name, w := range want {
		if got := snap.Channels[name]; got != w {
			t.Errorf("Channels[%s] = %+v, want %+v", name, got, w)
		}
	}
}

type countingRecorder struct {
	NoOp
	received int
	sent     []string
}

func (c *countingRecorder) RecordReceived()           { c.received++ }
func (c *countingRecorder) RecordSent(channel string) { c.sent = append(c.sent, channel) }

func TestMulti(t *testing.T) {
	a, b := &countingRecorder{}, &countingRecorder{}
	m := NewMulti(a, nil, b)

	if len(m) != 2 {
		t.Fatalf("len(NewMulti) = %d, want 2", len(m))
	}

	m.RecordReceived()
	m.RecordSent("api")
	m.RecordFailed("api")

	for i, r := range []*countingRecorder{a, b} {
		if r.received != 1 {
			t.Errorf("recorder %d received = %d, want 1", i, r.received)
		}
		if len(r.sent) != 1 || r.sent[0] != "api" {
			t.Errorf("recorder %d sent = %v", i, r.sent)
		}
	}
}
