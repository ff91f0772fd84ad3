// Package engine implements the background summarization request engine:
// fingerprinting, in-flight deduplication, a bounded result cache, and a
// delivery queue that hands completed summaries back to the host's pump.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lorehaven/recap/internal/companion"
	"github.com/lorehaven/recap/internal/config"
	"github.com/lorehaven/recap/internal/errortypes"
	"github.com/lorehaven/recap/internal/logger"
	"github.com/lorehaven/recap/internal/providers"
	"github.com/lorehaven/recap/internal/telemetry"
	"github.com/lorehaven/recap/internal/transport"
)

// Sender performs the HTTP exchange with the provider. Satisfied by
// *transport.Client.
type Sender interface {
	Send(ctx context.Context, url string, headers map[string]string, body string) (string, error)
}

// Archiver persists produced summaries. Optional.
type Archiver interface {
	Save(fingerprint, entityID, summary string, createdAt time.Time) error
}

// Options configures a new Engine. Zero-value fields get defaults.
type Options struct {
	Resolver *config.Resolver
	Prompts  PromptBuilder
	Sender   Sender
	Archive  Archiver
	Metrics  *telemetry.MetricsCollector
	Logger   *logger.Logger

	CacheMaxSize          int
	CacheCleanupThreshold int
}

// Engine owns the four runtime structures and the active provider
// configuration. Summarize and RegisterCallback are the entrypoints external
// code calls; everything else is lifecycle and host plumbing.
//
// Each structure has its own lock. Cross-structure sequences take the locks
// one at a time, never nested, in cache, in-flight, callback, queue order.
type Engine struct {
	resolver *config.Resolver
	prompts  PromptBuilder
	sender   Sender
	archive  Archiver
	metrics  *telemetry.MetricsCollector
	log      *logger.Logger

	cache     *ResultCache
	inflight  *InFlightTracker
	callbacks *CallbackRegistry
	queue     *DeliveryQueue

	cfg *configHolder
}

// New creates an Engine. Call Initialize before Summarize.
func New(opts *Options) *Engine {
	if opts == nil {
		opts = &Options{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger("engine")
	}
	prompts := opts.Prompts
	if prompts == nil {
		prompts = BasicPromptBuilder{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetricsCollector()
	}
	sender := opts.Sender
	if sender == nil {
		sender = transport.New(&transport.Config{Metrics: metrics})
	}
	maxSize := opts.CacheMaxSize
	if maxSize <= 0 {
		maxSize = config.DefaultCacheMaxSize
	}
	threshold := opts.CacheCleanupThreshold
	if threshold <= 0 {
		threshold = config.DefaultCacheCleanupThreshold
	}

	queue := NewDeliveryQueue(log)
	queue.SetPanicHandler(func(interface{}) {
		metrics.IncrementCounter(telemetry.MetricCallbackFailures, 1)
	})

	return &Engine{
		resolver:  opts.Resolver,
		prompts:   prompts,
		sender:    sender,
		archive:   opts.Archive,
		metrics:   metrics,
		log:       log,
		cache:     NewResultCache(maxSize, threshold),
		inflight:  NewInFlightTracker(),
		callbacks: NewCallbackRegistry(),
		queue:     queue,
		cfg:       newConfigHolder(),
	}
}

// Initialize resolves the provider configuration. A pending player2
// companion detection is not a failure: detection runs asynchronously and
// the engine becomes ready once it completes. Any other resolution error
// leaves the engine unavailable.
func (e *Engine) Initialize(ctx context.Context) error {
	if e.resolver == nil {
		return errortypes.ConfigurationError(errors.New("no resolver"), "engine has no configuration source")
	}

	cfg, err := e.resolver.Resolve()
	if err != nil {
		if errors.Is(err, config.ErrCompanionPending) {
			e.log.Info("Player2 key not available, starting companion app detection")
			e.startCompanionDetection(ctx)
			return nil
		}
		errortypes.LogError(e.log, err)
		return err
	}

	e.cfg.set(cfg)
	e.log.Info("Engine initialized for provider %s (model %s)", cfg.Provider, cfg.Model)
	return nil
}

// ForceReinitialize discards the active configuration and resolves again.
func (e *Engine) ForceReinitialize(ctx context.Context) error {
	e.cfg.set(nil)
	return e.Initialize(ctx)
}

// ClearAllConfiguration resets the configuration and empties all four
// runtime structures.
func (e *Engine) ClearAllConfiguration() {
	e.cfg.set(nil)
	e.cache.Clear()
	e.inflight.Clear()
	e.callbacks.Clear()
	e.queue.Clear()
	e.metrics.SetGauge(telemetry.MetricCacheSize, 0)
	e.metrics.SetGauge(telemetry.MetricQueueDepth, 0)
	e.log.Info("Engine configuration and runtime state cleared")
}

// Ready reports whether a validated provider configuration is active.
func (e *Engine) Ready() bool {
	return e.cfg.get() != nil
}

// Fingerprint computes the cache key for an entity's memory list.
func (e *Engine) Fingerprint(entityID string, memories []Memory) string {
	return ComputeFingerprint(entityID, memories)
}

// Summarize returns the cached summary synchronously when one exists.
// Otherwise it returns ("", false) and, unless a call for the same
// fingerprint is already in flight, dispatches a background resolution.
// The caller's goroutine never blocks on network I/O.
func (e *Engine) Summarize(entityID string, memories []Memory, templateName string) (string, bool) {
	fp := ComputeFingerprint(entityID, memories)

	if summary, ok := e.cache.Get(fp); ok {
		e.metrics.IncrementCounter(telemetry.MetricCacheHits, 1)
		return summary, true
	}
	e.metrics.IncrementCounter(telemetry.MetricCacheMisses, 1)

	if e.cfg.get() == nil {
		e.log.Warn("Summarize called with no active provider configuration, dropping request for %s", fp)
		return "", false
	}

	if !e.inflight.TryAcquire(fp) {
		e.metrics.IncrementCounter(telemetry.MetricInFlightSkips, 1)
		return "", false
	}

	go e.resolve(fp, entityID, memories, templateName)
	return "", false
}

// RegisterCallback appends a result-ready notification for the fingerprint.
// Callers should check the cache first: callbacks registered after a result
// is already cached will only fire if the entry is evicted and re-resolved.
func (e *Engine) RegisterCallback(fingerprint string, cb Callback) {
	e.callbacks.Register(fingerprint, cb)
}

// CachedSummary looks up a summary by fingerprint without dispatching.
func (e *Engine) CachedSummary(fingerprint string) (string, bool) {
	return e.cache.Get(fingerprint)
}

// Pump drains up to maxPerTick queued callback invocations on the caller's
// goroutine. The host must call it periodically and never concurrently.
func (e *Engine) Pump(maxPerTick int) int {
	n := e.queue.Drain(maxPerTick)
	if n > 0 {
		e.metrics.IncrementCounter(telemetry.MetricPumpBatches, 1)
	}
	e.metrics.SetGauge(telemetry.MetricQueueDepth, float64(e.queue.Len()))
	return n
}

// Stats is a point-in-time snapshot of the engine's runtime structures.
type Stats struct {
	Ready            bool   `json:"ready"`
	Provider         string `json:"provider,omitempty"`
	Model            string `json:"model,omitempty"`
	CacheSize        int    `json:"cache_size"`
	InFlight         int    `json:"in_flight"`
	PendingCallbacks int    `json:"pending_callbacks"`
	QueueDepth       int    `json:"queue_depth"`
}

// Stats reports current sizes of the runtime structures.
func (e *Engine) Stats() Stats {
	s := Stats{
		CacheSize:        e.cache.Len(),
		InFlight:         e.inflight.Len(),
		PendingCallbacks: e.callbacks.PendingCount(),
		QueueDepth:       e.queue.Len(),
	}
	if cfg := e.cfg.get(); cfg != nil {
		s.Ready = true
		s.Provider = cfg.Provider
		s.Model = cfg.Model
	}
	return s
}

// MetricsReport returns the telemetry collector's formatted report.
func (e *Engine) MetricsReport() string {
	return e.metrics.GetReport()
}

// resolve runs on its own goroutine, one per dispatched fingerprint. The
// in-flight marker is released on every exit path so a later Summarize can
// retry after a failure.
func (e *Engine) resolve(fp, entityID string, memories []Memory, templateName string) {
	defer e.inflight.Release(fp)
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Resolution panicked for %s: %v", fp, r)
			e.metrics.IncrementCounter(telemetry.MetricAPICallsFailure, 1)
		}
	}()

	cfg := e.cfg.get()
	if cfg == nil {
		return
	}

	prompt := e.prompts.BuildPrompt(entityID, memories, templateName)
	body := providers.EncodeRequest(cfg.Provider, cfg.Model, prompt, cfg.CachingEnabled)
	url := providers.RequestURL(cfg.Provider, cfg.APIURL, cfg.Model, cfg.APIKey)
	headers := providers.RequestHeaders(cfg.Provider, cfg.APIKey)

	e.metrics.IncrementCounter(apiCallMetric(cfg.Provider), 1)
	start := time.Now()
	raw, err := e.sender.Send(context.Background(), url, headers, body)
	e.metrics.RecordTimer(telemetry.MetricResponseTime, time.Since(start))

	if err != nil {
		e.metrics.IncrementCounter(telemetry.MetricAPICallsFailure, 1)
		errortypes.LogError(e.log.WithField("fingerprint", fp), err)
		return
	}

	summary, ok := providers.DecodeResponse(cfg.Provider, raw)
	if !ok {
		e.metrics.IncrementCounter(telemetry.MetricAPICallsFailure, 1)
		errortypes.LogError(e.log.WithField("fingerprint", fp),
			errortypes.MalformedResponseError(errors.New("expected field missing"), "provider "+cfg.Provider))
		return
	}
	e.metrics.IncrementCounter(telemetry.MetricAPICallsSuccess, 1)

	if pruned := e.cache.Put(fp, summary); pruned > 0 {
		e.metrics.IncrementCounter(telemetry.MetricCachePrunes, int64(pruned))
		e.log.Debug("Result cache pruned %d entries", pruned)
	}
	e.metrics.SetGauge(telemetry.MetricCacheSize, float64(e.cache.Len()))

	if e.archive != nil {
		if err := e.archive.Save(fp, entityID, summary, time.Now()); err != nil {
			e.log.Warn("Failed to archive summary for %s: %v", fp, err)
		}
	}

	for _, cb := range e.callbacks.DrainAll(fp) {
		cb := cb
		e.queue.Enqueue(func() { cb(summary) })
	}
	e.metrics.SetGauge(telemetry.MetricQueueDepth, float64(e.queue.Len()))
}

// startCompanionDetection probes the local player2 app in the background
// and finishes initialization once a session key arrives.
func (e *Engine) startCompanionDetection(ctx context.Context) {
	base := e.resolver.CompanionBaseURL()
	detector := companion.NewDetector(base)
	detector.DetectAsync(ctx, func(key string, err error) {
		if err != nil {
			e.log.Warn("Companion app detection failed: %v", err)
			return
		}
		e.metrics.IncrementCounter(telemetry.MetricCompanionDetects, 1)
		e.resolver.SetCompanionKey(key)

		cfg, err := e.resolver.Resolve()
		if err != nil {
			errortypes.LogError(e.log, err)
			return
		}
		e.cfg.set(cfg)
		e.log.Info("Companion app detected, engine ready for provider %s", cfg.Provider)
	})
}

// configHolder guards the active provider configuration with its own lock,
// separate from the four runtime structures.
type configHolder struct {
	mu  sync.RWMutex
	cfg *config.ProviderConfig
}

func newConfigHolder() *configHolder {
	return &configHolder{}
}

func (h *configHolder) get() *config.ProviderConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

func (h *configHolder) set(cfg *config.ProviderConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cfg = cfg
}

func apiCallMetric(provider string) string {
	switch provider {
	case providers.ProviderOpenAI:
		return telemetry.MetricAPICallsOpenAI
	case providers.ProviderDeepSeek:
		return telemetry.MetricAPICallsDeepSeek
	case providers.ProviderGoogle:
		return telemetry.MetricAPICallsGoogle
	case providers.ProviderPlayer2:
		return telemetry.MetricAPICallsPlayer2
	default:
		return telemetry.MetricAPICallsCustom
	}
}
