package engine

import "sync"

// InFlightTracker is the set of fingerprints with an outstanding network
// call. It enforces at most one outstanding call per fingerprint.
type InFlightTracker struct {
	pending map[string]struct{}
	mu      sync.Mutex
}

// NewInFlightTracker creates an empty tracker.
func NewInFlightTracker() *InFlightTracker {
	return &InFlightTracker{pending: make(map[string]struct{})}
}

// TryAcquire marks a fingerprint as in flight. It returns false, leaving
// state unchanged, when the fingerprint is already being resolved.
func (t *InFlightTracker) TryAcquire(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.pending[key]; exists {
		return false
	}
	t.pending[key] = struct{}{}
	return true
}

// Release removes a fingerprint unconditionally.
func (t *InFlightTracker) Release(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.pending, key)
}

// Clear removes all fingerprints.
func (t *InFlightTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = make(map[string]struct{})
}

// Len returns the number of fingerprints currently in flight.
func (t *InFlightTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.pending)
}
