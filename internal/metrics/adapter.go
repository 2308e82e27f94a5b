package metrics

import (
	"time"

	"alert-dispatcher/pkg/metrics"
)

// CollectorAdapter adapts pkg/metrics.Collector to the Recorder interface so
// the same calls feed the Redis snapshots.
type CollectorAdapter struct {
	collector *metrics.Collector
}

// NewCollectorAdapter wraps a metrics.Collector to implement Recorder.
func NewCollectorAdapter(collector *metrics.Collector) *CollectorAdapter {
	return &CollectorAdapter{collector: collector}
}

func (a *CollectorAdapter) RecordReceived() {
	a.collector.RecordReceived()
}

func (a *CollectorAdapter) RecordProcessed(latency time.Duration) {
	a.collector.RecordDispatched(latency)
}

func (a *CollectorAdapter) RecordRejected() {
	a.collector.RecordRejected()
}

func (a *CollectorAdapter) RecordNoRecipients() {
	a.collector.RecordNoRecipients()
}

func (a *CollectorAdapter) RecordSent(channel string) {
	a.collector.RecordDelivery(channel, metrics.OutcomeSent)
}

func (a *CollectorAdapter) RecordFailed(channel string) {
	a.collector.RecordDelivery(channel, metrics.OutcomeFailed)
}

func (a *CollectorAdapter) RecordSkipped(channel string) {
	a.collector.RecordDelivery(channel, metrics.OutcomeSkipped)
}

func (a *CollectorAdapter) RecordPublished() {
	a.collector.RecordPublished()
}

func (a *CollectorAdapter) RecordError() {
	a.collector.RecordError()
}

// RecordHTTPRequest only counts requests; latency histograms live in Prometheus.
func (a *CollectorAdapter) RecordHTTPRequest(method, path string, status int, latency time.Duration) {
	a.collector.RecordHTTPRequest()
}

var _ Recorder = (*CollectorAdapter)(nil)
