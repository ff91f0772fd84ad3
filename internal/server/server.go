package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/localrivet/gomcp/server"

	"github.com/lorehaven/recap/internal/archive"
	"github.com/lorehaven/recap/internal/engine"
	"github.com/lorehaven/recap/internal/errortypes"
	"github.com/lorehaven/recap/internal/tools"
)

// Common server error types
var (
	ErrServerNotInitialized = errors.New("server not initialized")
	ErrMissingDependencies  = errors.New("one or more required dependencies are nil")
)

// MCPSummaryToolServer implements the SummaryToolServer interface for
// handling MCP tool calls against the summarization engine. The archive
// is optional; without it get_summary only consults the in-memory cache.
type MCPSummaryToolServer struct {
	engine    *engine.Engine
	archive   archive.Store
	mcpServer server.Server
}

// NewSummaryToolServer creates a new MCPSummaryToolServer instance.
func NewSummaryToolServer(eng *engine.Engine, store archive.Store) *MCPSummaryToolServer {
	return &MCPSummaryToolServer{
		engine:  eng,
		archive: store,
	}
}

// Initialize registers the MCP tools.
func (s *MCPSummaryToolServer) Initialize() error {
	slog.Info("Initializing MCP Summary Tool Server")

	if s.engine == nil {
		return errortypes.ConfigurationError(ErrMissingDependencies, "server initialization failed")
	}

	srv := server.NewServer("recap")

	srv = srv.Tool(tools.ToolSummarizeMemories, "Request a summary of an entity's memories",
		s.handleSummarizeMemories)

	srv = srv.Tool(tools.ToolGetSummary, "Fetch a previously requested summary by fingerprint",
		s.handleGetSummary)

	srv = srv.Tool(tools.ToolEngineStats, "Report the engine's runtime statistics",
		s.handleEngineStats)

	srv = srv.Tool(tools.ToolResetEngine, "Reset the engine's configuration and runtime state",
		s.handleResetEngine)

	s.mcpServer = srv
	slog.Info("MCP Summary Tool Server initialized successfully", "tool_count", 4)
	return nil
}

// Start starts the MCP server on the stdio transport.
func (s *MCPSummaryToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigurationError(ErrServerNotInitialized, "cannot start server")
	}

	slog.Info("Starting MCP Summary Tool Server")

	stdioServer := s.mcpServer.AsStdio()
	return stdioServer.Run()
}

// Stop gracefully shuts down the MCP server.
func (s *MCPSummaryToolServer) Stop() error {
	slog.Info("Stopping MCP Summary Tool Server")
	// The server will exit when stdin is closed
	return nil
}

// handleSummarizeMemories handles the summarize_memories MCP tool call.
func (s *MCPSummaryToolServer) handleSummarizeMemories(ctx *server.Context, req tools.SummarizeMemoriesRequest) (tools.SummarizeMemoriesResponse, error) {
	slog.Info("Processing summarize_memories request",
		"entity_id", req.EntityID, "memory_count", len(req.Memories))

	response := tools.SummarizeMemoriesResponse{}

	if req.EntityID == "" {
		response.Status = tools.StatusError
		response.Error = "entity_id cannot be empty"
		return response, nil
	}
	if len(req.Memories) == 0 {
		response.Status = tools.StatusError
		response.Error = "memories cannot be empty"
		return response, nil
	}

	memories := make([]engine.Memory, len(req.Memories))
	for i, m := range req.Memories {
		memories[i] = engine.Memory{ID: m.ID, Content: m.Content}
	}

	response.Fingerprint = s.engine.Fingerprint(req.EntityID, memories)

	if !s.engine.Ready() {
		response.Status = tools.StatusError
		response.Error = "engine has no active provider configuration"
		return response, nil
	}

	if summary, ok := s.engine.Summarize(req.EntityID, memories, req.Template); ok {
		response.Status = tools.StatusReady
		response.Summary = summary
		slog.Debug("Served summarize_memories from cache", "fingerprint", response.Fingerprint)
		return response, nil
	}

	response.Status = tools.StatusPending
	slog.Debug("Scheduled summarize_memories resolution", "fingerprint", response.Fingerprint)
	return response, nil
}

// handleGetSummary handles the get_summary MCP tool call. The in-memory
// cache is consulted first, then the archive.
func (s *MCPSummaryToolServer) handleGetSummary(ctx *server.Context, req tools.GetSummaryRequest) (tools.GetSummaryResponse, error) {
	slog.Info("Processing get_summary request", "fingerprint", req.Fingerprint)

	response := tools.GetSummaryResponse{}

	if req.Fingerprint == "" {
		response.Status = tools.StatusError
		response.Error = "fingerprint cannot be empty"
		return response, nil
	}

	if summary, ok := s.engine.CachedSummary(req.Fingerprint); ok {
		response.Status = tools.StatusReady
		response.Summary = summary
		return response, nil
	}

	if s.archive != nil {
		entry, found, err := s.archive.Lookup(req.Fingerprint)
		if err != nil {
			errortypes.LogError(nil, err)
		} else if found {
			response.Status = tools.StatusReady
			response.Summary = entry.Summary
			slog.Debug("Served get_summary from archive", "fingerprint", req.Fingerprint)
			return response, nil
		}
	}

	response.Status = tools.StatusPending
	return response, nil
}

// handleEngineStats handles the engine_stats MCP tool call.
func (s *MCPSummaryToolServer) handleEngineStats(ctx *server.Context, req tools.EngineStatsRequest) (tools.EngineStatsResponse, error) {
	slog.Info("Processing engine_stats request")

	stats := s.engine.Stats()
	response := tools.EngineStatsResponse{
		Status:           "success",
		Ready:            stats.Ready,
		Provider:         stats.Provider,
		Model:            stats.Model,
		CacheSize:        stats.CacheSize,
		InFlight:         stats.InFlight,
		PendingCallbacks: stats.PendingCallbacks,
		QueueDepth:       stats.QueueDepth,
	}
	if req.IncludeMetrics {
		response.MetricsReport = s.engine.MetricsReport()
	}
	return response, nil
}

// handleResetEngine handles the reset_engine MCP tool call.
func (s *MCPSummaryToolServer) handleResetEngine(ctx *server.Context, req tools.ResetEngineRequest) (tools.ResetEngineResponse, error) {
	slog.Info("Processing reset_engine request", "reinitialize", req.Reinitialize)

	response := tools.ResetEngineResponse{
		Status: "success",
	}

	if req.Confirmation != "confirm" {
		response.Status = "error"
		response.Error = "Confirmation required. Set confirmation to 'confirm' to proceed with resetting the engine"
		slog.Warn("Reset engine operation rejected: missing confirmation")
		return response, nil
	}

	s.engine.ClearAllConfiguration()

	if req.Reinitialize {
		if err := s.engine.ForceReinitialize(context.Background()); err != nil {
			errortypes.LogError(nil, err)
			response.Status = "error"
			response.Error = err.Error()
			return response, nil
		}
	}

	response.Ready = s.engine.Ready()
	slog.Info("Successfully reset engine", "ready", response.Ready)
	return response, nil
}
