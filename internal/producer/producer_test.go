package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"alert-dispatcher/internal/events"
)

type mockWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func testEvent() *events.AlertDispatched {
	return &events.AlertDispatched{
		SchemaVersion: events.SchemaVersion,
		AlertUUID:     "uuid-1",
		Location:      "store-1",
		Label:         "theft",
		Severity:      "critical",
		Outcome:       events.OutcomeDispatched,
		Recipients:    2,
		Sent:          2,
		DispatchedAt:  1700000000,
	}
}

func TestNewProducer(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		topic   string
		wantErr string
	}{
		{name: "empty brokers", brokers: "", topic: "alerts.dispatched", wantErr: "brokers cannot be empty"},
		{name: "only separators", brokers: " , ", topic: "alerts.dispatched", wantErr: "brokers cannot be empty"},
		{name: "empty topic", brokers: "localhost:9092", topic: "", wantErr: "topic cannot be empty"},
		{name: "valid config", brokers: "localhost:9092, localhost:9093", topic: "alerts.dispatched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProducer(tt.brokers, tt.topic)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Errorf("NewProducer() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProducer() error = %v", err)
			}
			if p.topic != tt.topic {
				t.Errorf("topic = %q, want %q", p.topic, tt.topic)
			}
			_ = p.Close()
		})
	}
}

func TestProducer_Publish(t *testing.T) {
	w := &mockWriter{}
	p := &Producer{writer: w, topic: "alerts.dispatched"}

	if err := p.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}

	msg := w.msgs[0]
	if string(msg.Key) != "uuid-1" {
		t.Errorf("Key = %q, want uuid-1", msg.Key)
	}
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	want := map[string]string{"schema_version": "1", "outcome": "dispatched", "alert_uuid": "uuid-1"}
	for k, v := range want {
		if headers[k] != v {
			t.Errorf("header %s = %q, want %q", k, headers[k], v)
		}
	}

	var decoded events.AlertDispatched
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded != *testEvent() {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestProducer_PublishError(t *testing.T) {
	writeErr := errors.New("leader not available")
	p := &Producer{writer: &mockWriter{err: writeErr}, topic: "alerts.dispatched"}

	if err := p.Publish(context.Background(), testEvent()); !errors.Is(err, writeErr) {
		t.Errorf("Publish() error = %v, want wrapped %v", err, writeErr)
	}
}

func TestProducer_Close(t *testing.T) {
	w := &mockWriter{}
	p := &Producer{writer: w, topic: "alerts.dispatched"}

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !w.closed {
		t.Error("writer was not closed")
	}
}

func TestNoOp(t *testing.T) {
	var n NoOp
	if err := n.Publish(context.Background(), testEvent()); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
	if err := n.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
