// Package metrics keeps in-process dispatch counters and publishes periodic
// snapshots to Redis, where any instance (or the HTTP API) can read them back.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyPrefix prefixes every snapshot key, e.g. "metrics:alert-dispatcher".
	KeyPrefix = "metrics:"
	// SnapshotTTL expires snapshots of instances that stopped reporting.
	SnapshotTTL = 2 * time.Minute
	// DefaultReportInterval is how often snapshots are written.
	DefaultReportInterval = 30 * time.Second

	// ServiceName is the name the dispatcher reports under.
	ServiceName = "alert-dispatcher"
)

// Snapshot statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy" // snapshot older than SnapshotTTL
	StatusOffline   = "offline"   // no snapshot at all
)

// Delivery outcomes counted per channel.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// ErrNoSnapshot is returned when a service has never reported or its
// snapshot expired.
var ErrNoSnapshot = errors.New("no metrics snapshot")

// ServiceNames is the list of services expected to report metrics.
var ServiceNames = []string{
	ServiceName,
}

// ChannelCounts tallies delivery outcomes for one channel.
type ChannelCounts struct {
	Sent    uint64 `json:"sent"`
	Failed  uint64 `json:"failed"`
	Skipped uint64 `json:"skipped"`
}

// ServiceMetrics is the snapshot stored in Redis.
type ServiceMetrics struct {
	ServiceName string    `json:"service_name"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
	Status      string    `json:"status"`

	AlertsReceived     uint64 `json:"alerts_received"`
	AlertsDispatched   uint64 `json:"alerts_dispatched"`
	AlertsRejected     uint64 `json:"alerts_rejected"`
	AlertsNoRecipients uint64 `json:"alerts_no_recipients"`
	EventsPublished    uint64 `json:"events_published"`
	ProcessingErrors   uint64 `json:"processing_errors"`
	HTTPRequests       uint64 `json:"http_requests"`

	// Dispatched alerts per second since the previous snapshot
	AlertsPerSecond      float64 `json:"alerts_per_second"`
	AvgDispatchLatencyMs float64 `json:"avg_dispatch_latency_ms"`

	Channels map[string]ChannelCounts `json:"channels,omitempty"`
}

// Offline returns the placeholder reported for a service with no snapshot.
func Offline(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{ServiceName: serviceName, Status: StatusOffline}
}

type channelCounters struct {
	sent, failed, skipped atomic.Uint64
}

// Collector accumulates dispatch counters and reports them to Redis.
// All Record methods are safe for concurrent use.
type Collector struct {
	serviceName    string
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	received     atomic.Uint64
	dispatched   atomic.Uint64
	rejected     atomic.Uint64
	noRecipients atomic.Uint64
	published    atomic.Uint64
	procErrors   atomic.Uint64
	httpRequests atomic.Uint64

	latencyTotal atomic.Int64 // nanoseconds
	latencyCount atomic.Uint64

	channelsMu sync.RWMutex
	channels   map[string]*channelCounters

	// guarded by rateMu; the reporter advances the window
	rateMu         sync.Mutex
	windowStart    time.Time
	windowBaseline uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCollector creates a collector for serviceName.
// A nil Redis client is allowed; snapshots still work but nothing is written.
func NewCollector(serviceName string, redisClient *redis.Client) *Collector {
	now := time.Now().UTC()
	return &Collector{
		serviceName:    serviceName,
		redis:          redisClient,
		startedAt:      now,
		reportInterval: DefaultReportInterval,
		windowStart:    now,
		channels:       make(map[string]*channelCounters),
		stopCh:         make(chan struct{}),
	}
}

// SetReportInterval must be called before Start.
func (c *Collector) SetReportInterval(interval time.Duration) {
	c.reportInterval = interval
}

// Start writes a snapshot every report interval until ctx is done or Stop
// is called. A final snapshot is written on exit.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.report(context.Background())
				return
			case <-c.stopCh:
				c.report(context.Background())
				return
			case <-ticker.C:
				c.report(ctx)
			}
		}
	}()
}

// Stop ends reporting and waits for the final write. Safe to call twice.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

func (c *Collector) RecordReceived()     { c.received.Add(1) }
func (c *Collector) RecordRejected()     { c.rejected.Add(1) }
func (c *Collector) RecordNoRecipients() { c.noRecipients.Add(1) }
func (c *Collector) RecordPublished()    { c.published.Add(1) }
func (c *Collector) RecordError()        { c.procErrors.Add(1) }
func (c *Collector) RecordHTTPRequest()  { c.httpRequests.Add(1) }

// RecordDispatched counts an alert whose deliveries all completed.
func (c *Collector) RecordDispatched(latency time.Duration) {
	c.dispatched.Add(1)
	c.latencyTotal.Add(latency.Nanoseconds())
	c.latencyCount.Add(1)
}

// RecordDelivery counts one delivery outcome for channel. Unknown outcomes
// are ignored.
func (c *Collector) RecordDelivery(channel, outcome string) {
	cc := c.channel(channel)
	switch outcome {
	case OutcomeSent:
		cc.sent.Add(1)
	case OutcomeFailed:
		cc.failed.Add(1)
	case OutcomeSkipped:
		cc.skipped.Add(1)
	}
}

func (c *Collector) channel(name string) *channelCounters {
	c.channelsMu.RLock()
	cc, ok := c.channels[name]
	c.channelsMu.RUnlock()
	if ok {
		return cc
	}

	c.channelsMu.Lock()
	defer c.channelsMu.Unlock()
	if cc, ok = c.channels[name]; !ok {
		cc = &channelCounters{}
		c.channels[name] = cc
	}
	return cc
}

// GetSnapshot returns the current counters without writing to Redis.
func (c *Collector) GetSnapshot() *ServiceMetrics {
	now := time.Now().UTC()
	dispatched := c.dispatched.Load()

	c.rateMu.Lock()
	elapsed := now.Sub(c.windowStart).Seconds()
	baseline := c.windowBaseline
	c.rateMu.Unlock()

	var rate float64
	if elapsed > 0 && dispatched >= baseline {
		rate = float64(dispatched-baseline) / elapsed
	}

	var avgMs float64
	if n := c.latencyCount.Load(); n > 0 {
		avgMs = float64(c.latencyTotal.Load()) / float64(n) / float64(time.Millisecond)
	}

	c.channelsMu.RLock()
	channels := make(map[string]ChannelCounts, len(c.channels))
	for name, cc := range c.channels {
		channels[name] = ChannelCounts{
			Sent:    cc.sent.Load(),
			Failed:  cc.failed.Load(),
			Skipped: cc.skipped.Load(),
		}
	}
	c.channelsMu.RUnlock()

	return &ServiceMetrics{
		ServiceName:          c.serviceName,
		StartedAt:            c.startedAt,
		LastUpdated:          now,
		Status:               StatusHealthy,
		AlertsReceived:       c.received.Load(),
		AlertsDispatched:     dispatched,
		AlertsRejected:       c.rejected.Load(),
		AlertsNoRecipients:   c.noRecipients.Load(),
		EventsPublished:      c.published.Load(),
		ProcessingErrors:     c.procErrors.Load(),
		HTTPRequests:         c.httpRequests.Load(),
		AlertsPerSecond:      rate,
		AvgDispatchLatencyMs: avgMs,
		Channels:             channels,
	}
}

// report stores a snapshot under KeyPrefix+serviceName and starts a new
// rate window.
func (c *Collector) report(ctx context.Context) {
	if c.redis == nil {
		return
	}

	snapshot := c.GetSnapshot()

	c.rateMu.Lock()
	c.windowStart = snapshot.LastUpdated
	c.windowBaseline = snapshot.AlertsDispatched
	c.rateMu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("Failed to marshal metrics snapshot", "service", c.serviceName, "error", err)
		return
	}

	key := KeyPrefix + c.serviceName
	if err := c.redis.Set(ctx, key, data, SnapshotTTL).Err(); err != nil {
		slog.Error("Failed to write metrics snapshot", "service", c.serviceName, "error", err)
		return
	}
	slog.Debug("Metrics snapshot written", "key", key)
}

// Reader reads snapshots written by any Collector.
type Reader struct {
	redis *redis.Client
}

// NewReader creates a new metrics reader.
func NewReader(redisClient *redis.Client) *Reader {
	return &Reader{redis: redisClient}
}

// GetServiceMetrics returns the snapshot for serviceName, or an error
// wrapping ErrNoSnapshot.
func (r *Reader) GetServiceMetrics(ctx context.Context, serviceName string) (*ServiceMetrics, error) {
	data, err := r.redis.Get(ctx, KeyPrefix+serviceName).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w for service %s", ErrNoSnapshot, serviceName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}
	return decodeSnapshot(data)
}

// GetAllServiceMetrics returns every stored snapshot keyed by service name.
// Keys are listed with SCAN and fetched in one MGET.
func (r *Reader) GetAllServiceMetrics(ctx context.Context) (map[string]*ServiceMetrics, error) {
	var keys []string
	iter := r.redis.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list metrics keys: %w", err)
	}

	result := make(map[string]*ServiceMetrics, len(keys))
	if len(keys) == 0 {
		return result, nil
	}
	sort.Strings(keys)

	values, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}
	for i, v := range values {
		name := strings.TrimPrefix(keys[i], KeyPrefix)
		s, ok := v.(string)
		if !ok {
			// expired between SCAN and MGET
			continue
		}
		m, err := decodeSnapshot([]byte(s))
		if err != nil {
			slog.Warn("Skipping unreadable metrics snapshot", "service", name, "error", err)
			continue
		}
		result[name] = m
	}
	return result, nil
}

func decodeSnapshot(data []byte) (*ServiceMetrics, error) {
	var m ServiceMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}
	if time.Since(m.LastUpdated) > SnapshotTTL {
		m.Status = StatusUnhealthy
	}
	return &m, nil
}
