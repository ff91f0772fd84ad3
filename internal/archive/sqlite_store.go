package archive

import (
	"fmt"
	"sync"
	"time"

	"crawshaw.io/sqlite"

	"github.com/lorehaven/recap/internal/errortypes"
)

// SQLiteStore is a Store backed by a single SQLite connection. crawshaw
// connections are not safe for concurrent use, so every operation holds
// the store's lock.
type SQLiteStore struct {
	conn   *sqlite.Conn
	dbPath string
	mu     sync.Mutex
}

// NewSQLiteStore creates an uninitialized SQLiteStore.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Initialize opens the database and creates the table if needed.
func (s *SQLiteStore) Initialize(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dbPath = path

	conn, err := sqlite.OpenConn(path, sqlite.SQLITE_OPEN_CREATE|sqlite.SQLITE_OPEN_READWRITE)
	if err != nil {
		return errortypes.DatabaseError(err, "failed to open archive database")
	}
	s.conn = conn

	if err := s.createTable(); err != nil {
		s.conn.Close()
		s.conn = nil
		return errortypes.DatabaseError(err, "failed to create archive table")
	}

	return nil
}

func (s *SQLiteStore) createTable() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS summary_archive (
		fingerprint TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		summary TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`

	stmt, err := s.conn.Prepare(createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare create table statement: %w", err)
	}
	defer stmt.Reset()

	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to execute create table statement: %w", err)
	}

	return nil
}

// Save persists a summary, replacing any prior entry for the fingerprint.
func (s *SQLiteStore) Save(fingerprint, entityID, summary string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return errortypes.DatabaseError(nil, "archive store is not initialized")
	}

	insertSQL := `
	INSERT OR REPLACE INTO summary_archive (fingerprint, entity_id, summary, created_at)
	VALUES (?, ?, ?, ?);`

	stmt, err := s.conn.Prepare(insertSQL)
	if err != nil {
		return errortypes.DatabaseError(err, "failed to prepare insert statement")
	}
	defer stmt.Reset()

	stmt.BindText(1, fingerprint)
	stmt.BindText(2, entityID)
	stmt.BindText(3, summary)
	stmt.BindInt64(4, createdAt.Unix())

	if _, err := stmt.Step(); err != nil {
		return errortypes.DatabaseError(err, "failed to insert archive entry")
	}

	return nil
}

// Lookup returns the archived entry for a fingerprint.
func (s *SQLiteStore) Lookup(fingerprint string) (*Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil, false, errortypes.DatabaseError(nil, "archive store is not initialized")
	}

	selectSQL := `
	SELECT entity_id, summary, created_at FROM summary_archive
	WHERE fingerprint = ?;`

	stmt, err := s.conn.Prepare(selectSQL)
	if err != nil {
		return nil, false, errortypes.DatabaseError(err, "failed to prepare select statement")
	}
	defer stmt.Reset()

	stmt.BindText(1, fingerprint)

	hasRow, err := stmt.Step()
	if err != nil {
		return nil, false, errortypes.DatabaseError(err, "failed to execute select statement")
	}
	if !hasRow {
		return nil, false, nil
	}

	entry := &Entry{
		Fingerprint: fingerprint,
		EntityID:    stmt.ColumnText(0),
		Summary:     stmt.ColumnText(1),
		CreatedAt:   time.Unix(stmt.ColumnInt64(2), 0),
	}
	return entry, true, nil
}

// Recent returns up to limit entries, newest first.
func (s *SQLiteStore) Recent(limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil, errortypes.DatabaseError(nil, "archive store is not initialized")
	}
	if limit <= 0 {
		return nil, nil
	}

	selectSQL := `
	SELECT fingerprint, entity_id, summary, created_at FROM summary_archive
	ORDER BY created_at DESC LIMIT ?;`

	stmt, err := s.conn.Prepare(selectSQL)
	if err != nil {
		return nil, errortypes.DatabaseError(err, "failed to prepare select statement")
	}
	defer stmt.Reset()

	stmt.BindInt64(1, int64(limit))

	var entries []Entry
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, errortypes.DatabaseError(err, "failed to execute select statement")
		}
		if !hasRow {
			break
		}

		entries = append(entries, Entry{
			Fingerprint: stmt.ColumnText(0),
			EntityID:    stmt.ColumnText(1),
			Summary:     stmt.ColumnText(2),
			CreatedAt:   time.Unix(stmt.ColumnInt64(3), 0),
		})
	}

	return entries, nil
}

// Clear removes all archived entries.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return errortypes.DatabaseError(nil, "archive store is not initialized")
	}

	stmt, err := s.conn.Prepare(`DELETE FROM summary_archive;`)
	if err != nil {
		return errortypes.DatabaseError(err, "failed to prepare delete statement")
	}
	defer stmt.Reset()

	if _, err := stmt.Step(); err != nil {
		return errortypes.DatabaseError(err, "failed to clear archive")
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}
