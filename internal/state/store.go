// Package state persists per-entity checkpoints and the per-store run
// lock in a local sqlite database.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dbsmedya/shopsync/internal/logger"
)

// ErrLocked means another sync already holds the run lock for the store.
var ErrLocked = errors.New("store is locked by another sync")

// Store wraps the sqlite state database.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// Open opens (creating if needed) the state database at path and applies
// the production pragmas.
func Open(path string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	return NewStore(db, log), nil
}

// NewStore wraps an existing database handle. Useful for tests.
func NewStore(db *sql.DB, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Store{db: db, log: log}
}

// InitializeTables creates the checkpoint and run-lock tables if they do
// not exist.
func (s *Store) InitializeTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS checkpoints (
			entity TEXT PRIMARY KEY,
			bookmark TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_locks (
			store TEXT PRIMARY KEY,
			acquired_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize state tables: %w", err)
		}
	}
	return nil
}

// GetCheckpoint returns the stored bookmark for an entity, empty when the
// entity has never been synced.
func (s *Store) GetCheckpoint(ctx context.Context, entity string) (string, error) {
	var bookmark string
	err := s.db.QueryRowContext(ctx,
		"SELECT bookmark FROM checkpoints WHERE entity = ?", entity,
	).Scan(&bookmark)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read checkpoint for %s: %w", entity, err)
	}
	return bookmark, nil
}

// SetCheckpoint stores the bookmark for an entity, replacing any previous
// value.
func (s *Store) SetCheckpoint(ctx context.Context, entity, bookmark string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (entity, bookmark, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(entity) DO UPDATE SET bookmark = excluded.bookmark, updated_at = excluded.updated_at`,
		entity, bookmark, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store checkpoint for %s: %w", entity, err)
	}
	return nil
}

// AcquireRunLock takes the run lock for a store. Returns ErrLocked when a
// previous sync still holds it.
func (s *Store) AcquireRunLock(ctx context.Context, store string) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO run_locks (store, acquired_at) VALUES (?, ?)",
		store, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to acquire run lock for %s: %w", store, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check run lock for %s: %w", store, err)
	}
	if affected == 0 {
		return ErrLocked
	}
	s.log.Debugw("Acquired run lock", "store", store)
	return nil
}

// ReleaseRunLock releases the run lock for a store. Releasing a lock that
// is not held is not an error.
func (s *Store) ReleaseRunLock(ctx context.Context, store string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM run_locks WHERE store = ?", store,
	); err != nil {
		return fmt.Errorf("failed to release run lock for %s: %w", store, err)
	}
	return nil
}

// ForceReleaseRunLock removes a stale lock left by a crashed sync.
func (s *Store) ForceReleaseRunLock(ctx context.Context, store string) error {
	s.log.Warnw("Forcibly releasing run lock", "store", store)
	return s.ReleaseRunLock(ctx, store)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
