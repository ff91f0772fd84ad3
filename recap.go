// Package recap provides a background summarization service: it turns an
// entity's memory records into short natural-language summaries by calling
// one of several interchangeable LLM HTTP APIs, deduplicating in-flight
// requests and caching results. The Service wires the engine, the optional
// summary archive, and the MCP tool server together for embedding hosts;
// cmd/recap runs the same wiring as a standalone stdio server.
package recap

import (
	"context"
	"time"

	"github.com/lorehaven/recap/internal/archive"
	"github.com/lorehaven/recap/internal/config"
	"github.com/lorehaven/recap/internal/engine"
	"github.com/lorehaven/recap/internal/errortypes"
	"github.com/lorehaven/recap/internal/logger"
	"github.com/lorehaven/recap/internal/server"
	"github.com/lorehaven/recap/internal/telemetry"
	"github.com/lorehaven/recap/internal/transport"
)

// Settings represents the configuration for the recap service.
type Settings = config.Settings

// Memory is one record of an entity's memory list.
type Memory = engine.Memory

// DefaultPumpInterval is how often the service drains queued callback
// deliveries when running its own pump loop.
const DefaultPumpInterval = 100 * time.Millisecond

// DefaultPumpBatch bounds the deliveries drained per pump tick.
const DefaultPumpBatch = 16

// Service is the assembled recap service.
type Service struct {
	settings   *config.Settings
	engine     *engine.Engine
	store      archive.Store
	toolServer server.SummaryToolServer
	log        *logger.Logger

	pumpStop chan struct{}
	pumpDone chan struct{}
}

// ServiceOptions defines the options for creating a new Service.
type ServiceOptions struct {
	// Settings is a pre-filled configuration. If nil, ConfigPath is used.
	Settings *Settings

	// ConfigPath is the path to the config file, used when Settings is
	// nil. When both are empty the default path is tried.
	ConfigPath string

	// External supplies provider configuration from the host's own
	// storage, preferred over the settings when present.
	External config.ExternalSource

	// Prompts overrides the default prompt builder.
	Prompts engine.PromptBuilder

	// Logger overrides the default logger.
	Logger *logger.Logger
}

// NewService creates a recap Service with the given options. The engine is
// initialized immediately; a pending player2 companion detection completes
// in the background.
func NewService(opts ServiceOptions) (*Service, error) {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger("recap")
	}

	settings := opts.Settings
	if settings == nil {
		var err error
		path := opts.ConfigPath
		if path == "" {
			path = config.DefaultConfigFilename
		}
		log.Info("Loading configuration from %s", path)
		settings, err = config.LoadSettingsWithPath(path)
		if err != nil {
			return nil, errortypes.ConfigurationError(err, "failed to load configuration from "+path)
		}
	}

	metrics := telemetry.NewMetricsCollector()

	var store archive.Store
	if settings.Engine.ArchivePath != "" {
		log.Info("Initializing summary archive at %s", settings.Engine.ArchivePath)
		sqlStore := archive.NewSQLiteStore()
		if err := sqlStore.Initialize(settings.Engine.ArchivePath); err != nil {
			return nil, err
		}
		store = sqlStore
	}

	eng := engine.New(&engine.Options{
		Resolver: config.NewResolver(settings, opts.External),
		Prompts:  opts.Prompts,
		Sender: transport.New(&transport.Config{
			Metrics: metrics,
			Logger:  log.WithContext("transport"),
		}),
		Archive:               store,
		Metrics:               metrics,
		Logger:                log.WithContext("engine"),
		CacheMaxSize:          settings.Engine.CacheMaxSize,
		CacheCleanupThreshold: settings.Engine.CacheCleanupThreshold,
	})
	if err := eng.Initialize(context.Background()); err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	toolServer := server.NewSummaryToolServer(eng, store)
	if err := toolServer.Initialize(); err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	log.Info("Recap service initialized")
	return &Service{
		settings:   settings,
		engine:     eng,
		store:      store,
		toolServer: toolServer,
		log:        log,
	}, nil
}

// Start runs the pump loop and the MCP tool server. It blocks until the
// server's stdin closes.
func (s *Service) Start() error {
	s.log.Info("Starting recap service")
	s.startPump()
	return s.toolServer.Start()
}

// Stop stops the pump loop and releases the service's resources.
func (s *Service) Stop() error {
	s.log.Info("Stopping recap service")
	s.stopPump()

	if err := s.toolServer.Stop(); err != nil {
		s.log.Error("Error stopping tool server: %v", err)
		return err
	}

	if s.store != nil {
		s.log.Info("Closing summary archive")
		if err := s.store.Close(); err != nil {
			s.log.Error("Failed to close summary archive: %v", err)
			return err
		}
	}

	s.log.Info("Recap service stopped")
	return nil
}

// startPump drains the engine's delivery queue on a single goroutine so
// callback bodies never run concurrently with each other.
func (s *Service) startPump() {
	s.pumpStop = make(chan struct{})
	s.pumpDone = make(chan struct{})

	go func() {
		defer close(s.pumpDone)
		ticker := time.NewTicker(DefaultPumpInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.pumpStop:
				// Final drain so nothing queued is lost on shutdown.
				s.engine.Pump(DefaultPumpBatch)
				return
			case <-ticker.C:
				s.engine.Pump(DefaultPumpBatch)
			}
		}
	}()
}

func (s *Service) stopPump() {
	if s.pumpStop == nil {
		return
	}
	close(s.pumpStop)
	<-s.pumpDone
	s.pumpStop = nil
}

// Summarize returns the cached summary for an entity's memories, or
// schedules background resolution and returns ("", false).
func (s *Service) Summarize(entityID string, memories []Memory, templateName string) (string, bool) {
	return s.engine.Summarize(entityID, memories, templateName)
}

// RegisterCallback appends a result-ready notification for a fingerprint.
// Callbacks run on the service's pump goroutine.
func (s *Service) RegisterCallback(fingerprint string, cb func(summary string)) {
	s.engine.RegisterCallback(fingerprint, cb)
}

// Fingerprint computes the cache key for an entity's memory list.
func (s *Service) Fingerprint(entityID string, memories []Memory) string {
	return s.engine.Fingerprint(entityID, memories)
}

// Engine exposes the underlying engine for hosts that drive their own
// pump. Do not call Pump while the service's own pump loop is running.
func (s *Service) Engine() *engine.Engine {
	return s.engine
}

// Health reports the engine's health from collected metrics.
func (s *Service) Health() engine.HealthReport {
	return s.engine.Health()
}
