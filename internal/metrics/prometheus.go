package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "alert_dispatcher"

// Prometheus implements Recorder with Prometheus collectors registered on
// an injected registerer.
type Prometheus struct {
	alerts        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	published     prometheus.Counter
	errors        prometheus.Counter
	processing    prometheus.Histogram
	httpRequests  *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alerts_total",
				Help:      "Alerts handled by the webhook, by result.",
			},
			[]string{"result"}, // received, rejected, no_recipients
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Delivery attempts, by channel and result.",
			},
			[]string{"channel", "result"}, // sent, failed, skipped
		),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "AlertDispatched events written to Kafka.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processing_errors_total",
			Help:      "Infrastructure errors during dispatch.",
		}),
		processing: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time from alert receipt to dispatch completion.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 18), // 1ms to ~2min
		}),
		httpRequests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"method", "path", "status"},
		),
	}

	reg.MustRegister(p.alerts, p.notifications, p.published, p.errors, p.processing, p.httpRequests)
	return p
}

func (p *Prometheus) RecordReceived() {
	p.alerts.WithLabelValues("received").Inc()
}

func (p *Prometheus) RecordProcessed(latency time.Duration) {
	p.processing.Observe(latency.Seconds())
}

func (p *Prometheus) RecordRejected() {
	p.alerts.WithLabelValues("rejected").Inc()
}

func (p *Prometheus) RecordNoRecipients() {
	p.alerts.WithLabelValues("no_recipients").Inc()
}

func (p *Prometheus) RecordSent(channel string) {
	p.notifications.WithLabelValues(channel, "sent").Inc()
}

func (p *Prometheus) RecordFailed(channel string) {
	p.notifications.WithLabelValues(channel, "failed").Inc()
}

func (p *Prometheus) RecordSkipped(channel string) {
	p.notifications.WithLabelValues(channel, "skipped").Inc()
}

func (p *Prometheus) RecordPublished() {
	p.published.Inc()
}

func (p *Prometheus) RecordError() {
	p.errors.Inc()
}

func (p *Prometheus) RecordHTTPRequest(method, path string, status int, latency time.Duration) {
	p.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Observe(latency.Seconds())
}

var _ Recorder = (*Prometheus)(nil)
