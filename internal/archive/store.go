// Package archive persists produced summaries so they survive restarts.
// The engine writes through it on every successful resolution; lookups are
// for diagnostics and host tooling, not the hot path.
package archive

import "time"

// Entry is one archived summary.
type Entry struct {
	Fingerprint string
	EntityID    string
	Summary     string
	CreatedAt   time.Time
}

// Store is the interface for summary archives.
type Store interface {
	// Initialize prepares the store at the given path.
	Initialize(path string) error

	// Save persists a summary, replacing any prior entry for the
	// fingerprint.
	Save(fingerprint, entityID, summary string, createdAt time.Time) error

	// Lookup returns the archived entry for a fingerprint.
	Lookup(fingerprint string) (*Entry, bool, error)

	// Recent returns up to limit entries, newest first.
	Recent(limit int) ([]Entry, error)

	// Clear removes all archived entries.
	Clear() error

	// Close releases the store's resources.
	Close() error
}
