// Package tools defines the MCP tool names and request/response schemas
// for the recap service.
package tools

const (
	// ToolSummarizeMemories is the name of the summarize_memories MCP tool
	ToolSummarizeMemories = "summarize_memories"

	// ToolGetSummary is the name of the get_summary MCP tool
	ToolGetSummary = "get_summary"

	// ToolEngineStats is the name of the engine_stats MCP tool
	ToolEngineStats = "engine_stats"

	// ToolResetEngine is the name of the reset_engine MCP tool
	ToolResetEngine = "reset_engine"
)

// Request status values
const (
	// StatusReady means a summary is available in the response
	StatusReady = "ready"

	// StatusPending means resolution was scheduled; poll get_summary
	// with the returned fingerprint
	StatusPending = "pending"

	// StatusError means the request failed
	StatusError = "error"
)

// MemoryEntry is one memory record in a summarize_memories request
type MemoryEntry struct {
	// ID identifies the memory; when empty the content identifies it
	ID string `json:"id,omitempty"`

	// Content is the memory text
	Content string `json:"content"`
}

// SummarizeMemoriesRequest defines the input schema for summarize_memories
type SummarizeMemoriesRequest struct {
	// EntityID identifies whose memories these are
	EntityID string `json:"entity_id"`

	// Memories is the ordered memory list to summarize
	Memories []MemoryEntry `json:"memories"`

	// Template selects the prompt template ("short" or default)
	Template string `json:"template,omitempty"`
}

// SummarizeMemoriesResponse defines the output schema for summarize_memories
type SummarizeMemoriesResponse struct {
	// Status is "ready", "pending" or "error"
	Status string `json:"status"`

	// Fingerprint is the key for later get_summary calls
	Fingerprint string `json:"fingerprint"`

	// Summary is the summary text when Status is "ready"
	Summary string `json:"summary,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// GetSummaryRequest defines the input schema for get_summary
type GetSummaryRequest struct {
	// Fingerprint is the key returned by summarize_memories
	Fingerprint string `json:"fingerprint"`
}

// GetSummaryResponse defines the output schema for get_summary
type GetSummaryResponse struct {
	// Status is "ready", "pending" or "error"
	Status string `json:"status"`

	// Summary is the summary text when Status is "ready"
	Summary string `json:"summary,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// EngineStatsRequest defines the input schema for engine_stats
type EngineStatsRequest struct {
	// IncludeMetrics adds the full telemetry report to the response
	IncludeMetrics bool `json:"include_metrics,omitempty"`
}

// EngineStatsResponse defines the output schema for engine_stats
type EngineStatsResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Ready reports whether a provider configuration is active
	Ready bool `json:"ready"`

	// Provider is the active provider name, when ready
	Provider string `json:"provider,omitempty"`

	// Model is the active model name, when ready
	Model string `json:"model,omitempty"`

	// CacheSize is the number of cached summaries
	CacheSize int `json:"cache_size"`

	// InFlight is the number of outstanding provider calls
	InFlight int `json:"in_flight"`

	// PendingCallbacks is the number of fingerprints with waiting callbacks
	PendingCallbacks int `json:"pending_callbacks"`

	// QueueDepth is the number of queued callback deliveries
	QueueDepth int `json:"queue_depth"`

	// MetricsReport is the formatted telemetry report when requested
	MetricsReport string `json:"metrics_report,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// ResetEngineRequest defines the input schema for reset_engine
type ResetEngineRequest struct {
	// Confirmation must be set to "confirm" to prevent accidental resets
	Confirmation string `json:"confirmation"`

	// Reinitialize resolves configuration again after the reset
	Reinitialize bool `json:"reinitialize,omitempty"`
}

// ResetEngineResponse defines the output schema for reset_engine
type ResetEngineResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Ready reports whether the engine is ready after the reset
	Ready bool `json:"ready"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}
