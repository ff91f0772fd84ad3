package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lorehaven/recap/internal/archive"
	"github.com/lorehaven/recap/internal/config"
	"github.com/lorehaven/recap/internal/engine"
	"github.com/lorehaven/recap/internal/providers"
	"github.com/lorehaven/recap/internal/tools"
)

var testError = errors.New("test error")

// stubSender implements engine.Sender with a canned provider response.
type stubSender struct {
	resp  string
	calls int
}

func (s *stubSender) Send(ctx context.Context, url string, headers map[string]string, body string) (string, error) {
	s.calls++
	return s.resp, nil
}

// MockArchive implements the archive.Store interface for testing
type MockArchive struct {
	Entries     map[string]archive.Entry
	ReturnError bool
}

func (m *MockArchive) Initialize(path string) error {
	if m.ReturnError {
		return testError
	}
	return nil
}

func (m *MockArchive) Save(fingerprint, entityID, summary string, createdAt time.Time) error {
	if m.ReturnError {
		return testError
	}
	if m.Entries == nil {
		m.Entries = make(map[string]archive.Entry)
	}
	m.Entries[fingerprint] = archive.Entry{
		Fingerprint: fingerprint,
		EntityID:    entityID,
		Summary:     summary,
		CreatedAt:   createdAt,
	}
	return nil
}

func (m *MockArchive) Lookup(fingerprint string) (*archive.Entry, bool, error) {
	if m.ReturnError {
		return nil, false, testError
	}
	entry, ok := m.Entries[fingerprint]
	if !ok {
		return nil, false, nil
	}
	return &entry, true, nil
}

func (m *MockArchive) Recent(limit int) ([]archive.Entry, error) {
	if m.ReturnError {
		return nil, testError
	}
	return nil, nil
}

func (m *MockArchive) Clear() error {
	if m.ReturnError {
		return testError
	}
	m.Entries = nil
	return nil
}

func (m *MockArchive) Close() error {
	return nil
}

func newTestServer(t *testing.T, sender engine.Sender, store archive.Store) *MCPSummaryToolServer {
	t.Helper()

	settings := config.NewSettings()
	settings.Provider.Name = providers.ProviderOpenAI
	settings.Provider.APIKey = "sk-test-key-123456"
	settings.Provider.Model = "gpt-4o-mini"

	eng := engine.New(&engine.Options{
		Resolver: config.NewResolver(settings, nil),
		Sender:   sender,
		Archive:  store,
	})
	if err := eng.Initialize(context.Background()); err != nil {
		t.Fatalf("engine initialization failed: %v", err)
	}

	s := NewSummaryToolServer(eng, store)
	if err := s.Initialize(); err != nil {
		t.Fatalf("server initialization failed: %v", err)
	}
	return s
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestServerInitializeWithoutEngine(t *testing.T) {
	s := NewSummaryToolServer(nil, nil)
	if err := s.Initialize(); err == nil {
		t.Error("Expected initialization to fail without an engine")
	}
}

func TestHandleSummarizeMemories(t *testing.T) {
	sender := &stubSender{resp: `{"choices":[{"message":{"content":"Pawn1 had a rough week."}}]}`}
	s := newTestServer(t, sender, &MockArchive{})

	req := tools.SummarizeMemoriesRequest{
		EntityID: "pawn1",
		Memories: []tools.MemoryEntry{{ID: "m1", Content: "ate a meal"}},
		Template: "short",
	}

	resp, err := s.handleSummarizeMemories(nil, req)
	if err != nil {
		t.Fatalf("handleSummarizeMemories returned error: %v", err)
	}
	if resp.Status != tools.StatusPending {
		t.Errorf("Expected pending on first request, got %s", resp.Status)
	}
	if resp.Fingerprint == "" {
		t.Fatal("Expected a fingerprint in the response")
	}

	waitFor(t, func() bool {
		r, _ := s.handleGetSummary(nil, tools.GetSummaryRequest{Fingerprint: resp.Fingerprint})
		return r.Status == tools.StatusReady
	}, "summary never became ready")

	// A repeated request is served from the cache.
	resp2, _ := s.handleSummarizeMemories(nil, req)
	if resp2.Status != tools.StatusReady {
		t.Errorf("Expected ready on repeated request, got %s", resp2.Status)
	}
	if resp2.Summary != "Pawn1 had a rough week." {
		t.Errorf("Expected the decoded summary, got %q", resp2.Summary)
	}
	if sender.calls != 1 {
		t.Errorf("Expected 1 provider call, got %d", sender.calls)
	}
}

func TestHandleSummarizeMemoriesValidation(t *testing.T) {
	s := newTestServer(t, &stubSender{resp: "{}"}, nil)

	resp, _ := s.handleSummarizeMemories(nil, tools.SummarizeMemoriesRequest{
		Memories: []tools.MemoryEntry{{Content: "x"}},
	})
	if resp.Status != tools.StatusError {
		t.Errorf("Expected error for missing entity_id, got %s", resp.Status)
	}

	resp, _ = s.handleSummarizeMemories(nil, tools.SummarizeMemoriesRequest{EntityID: "pawn1"})
	if resp.Status != tools.StatusError {
		t.Errorf("Expected error for empty memories, got %s", resp.Status)
	}
}

func TestHandleGetSummaryArchiveFallback(t *testing.T) {
	store := &MockArchive{}
	store.Save("fp-archived", "pawn1", "An archived summary.", time.Now())

	s := newTestServer(t, &stubSender{resp: "{}"}, store)

	resp, err := s.handleGetSummary(nil, tools.GetSummaryRequest{Fingerprint: "fp-archived"})
	if err != nil {
		t.Fatalf("handleGetSummary returned error: %v", err)
	}
	if resp.Status != tools.StatusReady {
		t.Fatalf("Expected ready from archive, got %s", resp.Status)
	}
	if resp.Summary != "An archived summary." {
		t.Errorf("Expected archived summary, got %q", resp.Summary)
	}
}

func TestHandleGetSummaryUnknownFingerprint(t *testing.T) {
	s := newTestServer(t, &stubSender{resp: "{}"}, &MockArchive{})

	resp, _ := s.handleGetSummary(nil, tools.GetSummaryRequest{Fingerprint: "unknown"})
	if resp.Status != tools.StatusPending {
		t.Errorf("Expected pending for an unknown fingerprint, got %s", resp.Status)
	}

	resp, _ = s.handleGetSummary(nil, tools.GetSummaryRequest{})
	if resp.Status != tools.StatusError {
		t.Errorf("Expected error for an empty fingerprint, got %s", resp.Status)
	}
}

func TestHandleEngineStats(t *testing.T) {
	s := newTestServer(t, &stubSender{resp: "{}"}, nil)

	resp, err := s.handleEngineStats(nil, tools.EngineStatsRequest{IncludeMetrics: true})
	if err != nil {
		t.Fatalf("handleEngineStats returned error: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("Expected success, got %s", resp.Status)
	}
	if !resp.Ready {
		t.Error("Expected engine to be ready")
	}
	if resp.Provider != providers.ProviderOpenAI {
		t.Errorf("Expected provider openai, got %s", resp.Provider)
	}
	if resp.MetricsReport == "" {
		t.Error("Expected a metrics report when requested")
	}
}

func TestHandleResetEngine(t *testing.T) {
	s := newTestServer(t, &stubSender{resp: "{}"}, nil)

	// Missing confirmation is rejected.
	resp, _ := s.handleResetEngine(nil, tools.ResetEngineRequest{})
	if resp.Status != "error" {
		t.Errorf("Expected error without confirmation, got %s", resp.Status)
	}

	resp, _ = s.handleResetEngine(nil, tools.ResetEngineRequest{Confirmation: "confirm"})
	if resp.Status != "success" {
		t.Fatalf("Expected success, got %s: %s", resp.Status, resp.Error)
	}
	if resp.Ready {
		t.Error("Expected engine unavailable after reset without reinitialize")
	}

	resp, _ = s.handleResetEngine(nil, tools.ResetEngineRequest{Confirmation: "confirm", Reinitialize: true})
	if resp.Status != "success" {
		t.Fatalf("Expected success, got %s: %s", resp.Status, resp.Error)
	}
	if !resp.Ready {
		t.Error("Expected engine ready after reinitialization")
	}
}
