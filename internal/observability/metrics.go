package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the API surface, the
// escalation sweeps, and per-channel notification deliveries.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	sweepCount    int64
	sweepFailures int64
	deliveryOK    map[string]int64
	deliveryFail  map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		deliveryOK:   make(map[string]int64),
		deliveryFail: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordSweep counts a completed escalation sweep tick.
func (m *Metrics) RecordSweep(failed bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepCount++
	if failed {
		m.sweepFailures++
	}
}

// RecordDelivery counts one channel delivery attempt.
func (m *Metrics) RecordDelivery(channel string, ok bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.deliveryOK[channel]++
	} else {
		m.deliveryFail[channel]++
	}
}

// DeliveryCounts returns (succeeded, failed) attempts for a channel.
func (m *Metrics) DeliveryCounts(channel string) (int64, int64) {
	if m == nil {
		return 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deliveryOK[channel], m.deliveryFail[channel]
}

// SweepCounts returns (total, failed) sweep ticks.
func (m *Metrics) SweepCounts() (int64, int64) {
	if m == nil {
		return 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepCount, m.sweepFailures
}
