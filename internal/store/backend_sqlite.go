package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cliniclink/recordsync/internal/logger"
)

const (
	createSnapshotsTable = `CREATE TABLE IF NOT EXISTS snapshots (
		collection TEXT PRIMARY KEY,
		body       BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	getSnapshot = `SELECT body FROM snapshots WHERE collection = ?;`

	upsertSnapshot = `INSERT INTO snapshots (collection, body, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at;`

	removeSnapshot = `DELETE FROM snapshots WHERE collection = ?;`
)

// sqliteBackend keeps one row per collection in an SQLite database. The row
// is replaced in a single statement, so readers never observe a half-written
// snapshot.
type sqliteBackend struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewSQLiteBackend opens (creating if necessary) the SQLite database at
// dbPath and ensures the snapshots table exists.
func NewSQLiteBackend(ctx context.Context, dbPath string, log *logger.Logger) (Backend, error) {
	if err := createLocalDBFileIfNotExists(dbPath); err != nil {
		log.Err(err).Str("func", "NewSQLiteBackend").Msg("error creating database file")
		return nil, fmt.Errorf("%w: create database file: %w", ErrBackend, err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		log.Err(err).Str("func", "NewSQLiteBackend").Msg("error connecting database")
		return nil, fmt.Errorf("%w: open sqlite connection: %w", ErrBackend, err)
	}

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewSQLiteBackend").Msg("error connecting database (ping)")
		return nil, fmt.Errorf("%w: ping sqlite: %w", ErrBackend, err)
	}

	if _, err = conn.ExecContext(ctx, createSnapshotsTable); err != nil {
		log.Err(err).Str("func", "NewSQLiteBackend").Msg("error creating snapshots table")
		return nil, fmt.Errorf("%w: create snapshots table: %w", ErrBackend, err)
	}
	log.Debug().Str("func", "NewSQLiteBackend").Msg("connected to database successfully")

	return &sqliteBackend{db: conn, logger: log}, nil
}

// NewSQLiteBackendFromDB wraps an existing connection. Used by tests with
// sqlmock and by callers that manage the connection lifecycle themselves.
func NewSQLiteBackendFromDB(db *sql.DB, log *logger.Logger) Backend {
	return &sqliteBackend{db: db, logger: log}
}

func (s *sqliteBackend) Get(key string) ([]byte, bool, error) {
	var body []byte
	err := s.db.QueryRow(getSnapshot, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Err(err).Str("collection", key).Msg("failed to query snapshot")
		return nil, false, fmt.Errorf("%w: query snapshot: %w", ErrBackend, err)
	}
	return body, true, nil
}

func (s *sqliteBackend) Set(key string, value []byte) error {
	if _, err := s.db.Exec(upsertSnapshot, key, value); err != nil {
		s.logger.Err(err).Str("collection", key).Msg("failed to upsert snapshot")
		return fmt.Errorf("%w: upsert snapshot: %w", ErrBackend, err)
	}
	return nil
}

func (s *sqliteBackend) Remove(key string) error {
	if _, err := s.db.Exec(removeSnapshot, key); err != nil {
		s.logger.Err(err).Str("collection", key).Msg("failed to delete snapshot")
		return fmt.Errorf("%w: delete snapshot: %w", ErrBackend, err)
	}
	return nil
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}

	return nil
}
