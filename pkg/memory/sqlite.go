package memory

import (
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

// SQLiteStore is a Store backed by SQLite, for scratchpads that must
// survive the process. The path ":memory:" keeps the database in-memory.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string

	initialized sync.Once
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to open SQLite database"),
			errors.Fields{"path": path},
		)
	}

	store := &SQLiteStore{
		db:   db,
		path: path,
	}
	if err := store.ensureInitialized(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) ensureInitialized() error {
	var initErr error
	s.initialized.Do(func() {
		// WAL mode for better concurrency
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			initErr = errors.Wrap(err, errors.Unknown, "failed to enable WAL mode")
			return
		}

		query := `
        CREATE TABLE IF NOT EXISTS scratchpad_store (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );

        CREATE INDEX IF NOT EXISTS idx_scratchpad_store_created_at
        ON scratchpad_store(created_at);
        `

		if _, err := s.db.Exec(query); err != nil {
			initErr = errors.WithFields(
				errors.Wrap(err, errors.Unknown, "failed to initialize database"),
				errors.Fields{"query": query},
			)
			return
		}
	})
	return initErr
}

// Put implements Store with an upsert.
func (s *SQLiteStore) Put(key, value string) error {
	if err := s.ensureInitialized(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
    INSERT INTO scratchpad_store (key, value, updated_at)
    VALUES (?, ?, CURRENT_TIMESTAMP)
    ON CONFLICT(key) DO UPDATE SET
        value = excluded.value,
        updated_at = CURRENT_TIMESTAMP
    `

	if _, err := s.db.Exec(query, key, value); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to store value"),
			errors.Fields{"key": key},
		)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(key string) (string, error) {
	if err := s.ensureInitialized(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM scratchpad_store WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", errors.WithFields(
			errors.New(errors.ResourceNotFound, "key not found"),
			errors.Fields{"key": key},
		)
	}
	if err != nil {
		return "", errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to retrieve value"),
			errors.Fields{"key": key},
		)
	}
	return value, nil
}

// All implements Store, entries in insertion order by created_at.
func (s *SQLiteStore) All() (map[string]string, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT key, value FROM scratchpad_store ORDER BY created_at")
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to list entries")
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errors.Wrap(err, errors.Unknown, "failed to scan entry")
		}
		entries[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "error iterating rows")
	}
	return entries, nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear() error {
	if err := s.ensureInitialized(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM scratchpad_store"); err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to clear scratchpad store")
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to close database connection")
	}
	return nil
}
