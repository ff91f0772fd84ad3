package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/lorehaven/recap/internal/telemetry"
)

// HealthReport summarizes the engine's recent behavior from collected
// metrics. It makes no network calls.
type HealthReport struct {
	Ready            bool          `json:"ready"`
	Provider         string        `json:"provider,omitempty"`
	CacheSize        int           `json:"cache_size"`
	CacheHitRate     float64       `json:"cache_hit_rate"`
	InFlight         int           `json:"in_flight"`
	QueueDepth       int           `json:"queue_depth"`
	APISuccesses     int64         `json:"api_successes"`
	APIFailures      int64         `json:"api_failures"`
	RetryAttempts    int64         `json:"retry_attempts"`
	AvgResponseTime  time.Duration `json:"avg_response_time"`
	P95ResponseTime  time.Duration `json:"p95_response_time"`
	CallbackFailures int64         `json:"callback_failures"`
}

// Health builds a report from the current metrics and structure sizes.
func (e *Engine) Health() HealthReport {
	stats := e.Stats()

	hits := e.metrics.GetCounter(telemetry.MetricCacheHits)
	misses := e.metrics.GetCounter(telemetry.MetricCacheMisses)
	var hitRate float64
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	return HealthReport{
		Ready:            stats.Ready,
		Provider:         stats.Provider,
		CacheSize:        stats.CacheSize,
		CacheHitRate:     hitRate,
		InFlight:         stats.InFlight,
		QueueDepth:       stats.QueueDepth,
		APISuccesses:     e.metrics.GetCounter(telemetry.MetricAPICallsSuccess),
		APIFailures:      e.metrics.GetCounter(telemetry.MetricAPICallsFailure),
		RetryAttempts:    e.metrics.GetCounter(telemetry.MetricRetryAttempts),
		AvgResponseTime:  e.metrics.GetTimerAverage(telemetry.MetricResponseTime),
		P95ResponseTime:  e.metrics.GetTimerP95(telemetry.MetricResponseTime),
		CallbackFailures: e.metrics.GetCounter(telemetry.MetricCallbackFailures),
	}
}

// String renders the report for logs and diagnostics.
func (r HealthReport) String() string {
	var sb strings.Builder
	sb.WriteString("=== Engine Health ===\n")
	fmt.Fprintf(&sb, "Ready: %t", r.Ready)
	if r.Provider != "" {
		fmt.Fprintf(&sb, " (provider %s)", r.Provider)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Cache: %d entries, hit rate %.1f%%\n", r.CacheSize, r.CacheHitRate*100)
	fmt.Fprintf(&sb, "In flight: %d, queue depth: %d\n", r.InFlight, r.QueueDepth)
	fmt.Fprintf(&sb, "API calls: %d ok, %d failed, %d retries\n", r.APISuccesses, r.APIFailures, r.RetryAttempts)
	fmt.Fprintf(&sb, "Response time: avg %v, p95 %v\n", r.AvgResponseTime, r.P95ResponseTime)
	return sb.String()
}
