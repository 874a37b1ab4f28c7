package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/cliniclink/recordsync/internal/config"
	"github.com/cliniclink/recordsync/internal/logger"
)

// DB bundles the server's PostgreSQL connection with the error classifier the
// repositories use to decide whether a failed statement is worth retrying.
type DB struct {
	*sql.DB
	errorClassifier ErrorClassifier
	logger          *logger.Logger
}

// NewConnectPostgres opens and pings the server database described by cfg.
func NewConnectPostgres(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	conn, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error occured during database connection")
		return nil, fmt.Errorf("error occured during database connection: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(4)

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error connecting database (ping)")
		return nil, err
	}
	log.Info().Str("func", "NewConnectPostgres").Msg("connected to database successfully")

	return &DB{
		DB:              conn,
		errorClassifier: NewPostgresErrorClassifier(),
		logger:          log,
	}, nil
}

// NewDBFromSQL wraps an existing connection. Used by tests with sqlmock.
func NewDBFromSQL(conn *sql.DB, log *logger.Logger) *DB {
	return &DB{
		DB:              conn,
		errorClassifier: NewPostgresErrorClassifier(),
		logger:          log,
	}
}

func postgresErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
