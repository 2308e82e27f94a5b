// Package metrics defines the dispatcher's metrics recorder and its
// implementations (Redis collector, Prometheus, fan-out).
package metrics

import "time"

// Recorder records pipeline and HTTP metrics.
// A no-op implementation avoids nil checks in callers.
type Recorder interface {
	RecordReceived()
	RecordProcessed(latency time.Duration)
	RecordRejected()
	RecordNoRecipients()
	RecordSent(channel string)
	RecordFailed(channel string)
	RecordSkipped(channel string)
	RecordPublished()
	RecordError()
	RecordHTTPRequest(method, path string, status int, latency time.Duration)
}

// NoOp is a Recorder that does nothing.
type NoOp struct{}

var _ Recorder = NoOp{}

func (NoOp) RecordReceived()                                      {}
func (NoOp) RecordProcessed(time.Duration)                        {}
func (NoOp) RecordRejected()                                      {}
func (NoOp) RecordNoRecipients()                                  {}
func (NoOp) RecordSent(string)                                    {}
func (NoOp) RecordFailed(string)                                  {}
func (NoOp) RecordSkipped(string)                                 {}
func (NoOp) RecordPublished()                                     {}
func (NoOp) RecordError()                                         {}
func (NoOp) RecordHTTPRequest(string, string, int, time.Duration) {}

// Multi fans every call out to each Recorder in order.
type Multi []Recorder

var _ Recorder = Multi(nil)

// NewMulti combines recorders, dropping nils.
func NewMulti(recorders ...Recorder) Multi {
	m := make(Multi, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m Multi) RecordReceived() {
	for _, r := range m {
		r.RecordReceived()
	}
}

func (m Multi) RecordProcessed(latency time.Duration) {
	for _, r := range m {
		r.RecordProcessed(latency)
	}
}

func (m Multi) RecordRejected() {
	for _, r := range m {
		r.RecordRejected()
	}
}

func (m Multi) RecordNoRecipients() {
	for _, r := range m {
		r.RecordNoRecipients()
	}
}

func (m Multi) RecordSent(channel string) {
	for _, r := range m {
		r.RecordSent(channel)
	}
}

func (m Multi) RecordFailed(channel string) {
	for _, r := range m {
		r.RecordFailed(channel)
	}
}

func (m Multi) RecordSkipped(channel string) {
	for _, r := range m {
		r.RecordSkipped(channel)
	}
}

func (m Multi) RecordPublished() {
	for _, r := range m {
		r.RecordPublished()
	}
}

func (m Multi) RecordError() {
	for _, r := range m {
		r.RecordError()
	}
}

func (m Multi) RecordHTTPRequest(method, path string, status int, latency time.Duration) {
	for _, r := range m {
		r.RecordHTTPRequest(method, path, status, latency)
	}
}
