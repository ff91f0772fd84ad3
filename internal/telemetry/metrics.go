// Package telemetry collects counters, gauges and timing samples for
// monitoring the recap summarization engine.
package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// timerWindow bounds the samples kept per timer.
const timerWindow = 100

// EngineMetrics defines constants for metrics related to the request engine
const (
	// API call counts by provider
	MetricAPICallsOpenAI   = "engine.api_calls.openai"
	MetricAPICallsDeepSeek = "engine.api_calls.deepseek"
	MetricAPICallsGoogle   = "engine.api_calls.google"
	MetricAPICallsPlayer2  = "engine.api_calls.player2"
	MetricAPICallsCustom   = "engine.api_calls.custom"

	// Success/failure metrics
	MetricAPICallsSuccess = "engine.api_calls.success"
	MetricAPICallsFailure = "engine.api_calls.failure"

	// Retry metrics
	MetricRetryAttempts = "engine.retry_attempts"
	MetricRetrySuccess  = "engine.retry_success"

	// Cache metrics
	MetricCacheHits   = "engine.cache.hits"
	MetricCacheMisses = "engine.cache.misses"
	MetricCacheSize   = "engine.cache.size"
	MetricCachePrunes = "engine.cache.prunes"

	// In-flight dedup metrics
	MetricInFlightSkips = "engine.inflight.skips"

	// Delivery queue metrics
	MetricQueueDepth       = "engine.queue.depth"
	MetricPumpBatches      = "engine.pump.batches"
	MetricCallbackFailures = "engine.callbacks.failures"

	// Response times
	MetricResponseTime = "engine.response_time"

	// Companion detection
	MetricCompanionDetects = "engine.companion.detections"
)

// timerSeries keeps the most recent samples for one timer as a ring.
type timerSeries struct {
	samples [timerWindow]time.Duration
	next    int
	count   int
}

func (t *timerSeries) add(d time.Duration) {
	t.samples[t.next] = d
	t.next = (t.next + 1) % timerWindow
	if t.count < timerWindow {
		t.count++
	}
}

func (t *timerSeries) snapshot() []time.Duration {
	out := make([]time.Duration, t.count)
	copy(out, t.samples[:t.count])
	return out
}

// MetricsCollector provides a thread-safe interface for collecting
// application metrics for monitoring and troubleshooting.
type MetricsCollector struct {
	counters   map[string]int64
	gauges     map[string]float64
	timers     map[string]*timerSeries
	latestTime map[string]time.Time
	mu         sync.RWMutex
}

// NewMetricsCollector creates a new MetricsCollector instance
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		timers:     make(map[string]*timerSeries),
		latestTime: make(map[string]time.Time),
	}
}

// IncrementCounter increments a named counter by the specified amount
func (m *MetricsCollector) IncrementCounter(name string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[name] += amount
}

// SetGauge sets a named gauge to the specified value
func (m *MetricsCollector) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gauges[name] = value
}

// RecordTimer records a duration sample for the specified timer
func (m *MetricsCollector) RecordTimer(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	series, ok := m.timers[name]
	if !ok {
		series = &timerSeries{}
		m.timers[name] = series
	}
	series.add(duration)
}

// RecordTimestamp records the current time for the specified event
func (m *MetricsCollector) RecordTimestamp(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latestTime[name] = time.Now()
}

// GetCounter retrieves the current value of a counter
func (m *MetricsCollector) GetCounter(name string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.counters[name]
}

// GetGauge retrieves the current value of a gauge
func (m *MetricsCollector) GetGauge(name string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.gauges[name]
}

// GetTimerAverage calculates the average duration over the timer's window
func (m *MetricsCollector) GetTimerAverage(name string) time.Duration {
	m.mu.RLock()
	series, ok := m.timers[name]
	var samples []time.Duration
	if ok {
		samples = series.snapshot()
	}
	m.mu.RUnlock()

	return average(samples)
}

// GetTimerP95 calculates the 95th percentile duration over the timer's window
func (m *MetricsCollector) GetTimerP95(name string) time.Duration {
	m.mu.RLock()
	series, ok := m.timers[name]
	var samples []time.Duration
	if ok {
		samples = series.snapshot()
	}
	m.mu.RUnlock()

	return percentile95(samples)
}

// GetTimeSince calculates the time elapsed since a recorded timestamp
func (m *MetricsCollector) GetTimeSince(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	timestamp, ok := m.latestTime[name]
	if !ok {
		return 0
	}
	return time.Since(timestamp)
}

// GetReport generates a report of all collected metrics, names sorted.
func (m *MetricsCollector) GetReport() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("Metrics Report:\n")
	sb.WriteString("==============\n\n")

	sb.WriteString("Counters:\n")
	for _, name := range sortedNames(m.counters) {
		fmt.Fprintf(&sb, "  %s: %d\n", name, m.counters[name])
	}

	sb.WriteString("\nGauges:\n")
	for _, name := range sortedNames(m.gauges) {
		fmt.Fprintf(&sb, "  %s: %.2f\n", name, m.gauges[name])
	}

	sb.WriteString("\nTimers:\n")
	for _, name := range sortedNames(m.timers) {
		samples := m.timers[name].snapshot()
		fmt.Fprintf(&sb, "  %s: avg=%v p95=%v count=%d\n",
			name, average(samples), percentile95(samples), len(samples))
	}

	return sb.String()
}

// Reset clears all collected metrics
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters = make(map[string]int64)
	m.gauges = make(map[string]float64)
	m.timers = make(map[string]*timerSeries)
	m.latestTime = make(map[string]time.Time)
}

func average(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return total / time.Duration(len(samples))
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)) * 0.95)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
