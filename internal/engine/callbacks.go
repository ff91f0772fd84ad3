package engine

import "sync"

// Callback receives the summary text once a fingerprint resolves.
type Callback func(summary string)

// CallbackRegistry maps pending fingerprints to the callbacks waiting on
// them. Entries exist only while a fingerprint is pending and are removed
// atomically when results are delivered.
type CallbackRegistry struct {
	waiting map[string][]Callback
	mu      sync.Mutex
}

// NewCallbackRegistry creates an empty registry.
func NewCallbackRegistry() *CallbackRegistry {
	return &CallbackRegistry{waiting: make(map[string][]Callback)}
}

// Register appends a callback to the list for a fingerprint, creating the
// list if absent. Registration order is preserved.
func (r *CallbackRegistry) Register(key string, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.waiting[key] = append(r.waiting[key], cb)
}

// DrainAll removes and returns the full callback list for a fingerprint in
// registration order, or nil when none are registered.
func (r *CallbackRegistry) DrainAll(key string) []Callback {
	r.mu.Lock()
	defer r.mu.Unlock()

	cbs := r.waiting[key]
	delete(r.waiting, key)
	return cbs
}

// Clear removes all registered callbacks.
func (r *CallbackRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.waiting = make(map[string][]Callback)
}

// PendingCount returns the number of fingerprints with waiting callbacks.
func (r *CallbackRegistry) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.waiting)
}
