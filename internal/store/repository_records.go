package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/cliniclink/recordsync/internal/logger"
	"github.com/cliniclink/recordsync/models"
)

// psql builds every server query with PostgreSQL-style $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// recordRepository is the PostgreSQL-backed implementation of
// RecordRepository. Records live in the "records" table; the bigserial "seq"
// column preserves first-insertion order across upserts, which is the order
// agents replicate.
type recordRepository struct {
	*DB
}

// NewRecordRepository constructs a RecordRepository backed by the provided
// database connection.
func NewRecordRepository(db *DB) RecordRepository {
	return &recordRepository{DB: db}
}

// ListRecords implements RecordRepository.
func (r *recordRepository) ListRecords(ctx context.Context, collection string) ([]models.WireRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := psql.
		Select("record_id", "last_modified", "payload").
		From("records").
		Where(sq.Eq{"collection": collection}).
		OrderBy("seq").
		ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.ListRecords").
			Str("collection", collection).
			Msg("failed to build list query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.ListRecords").
			Str("collection", collection).
			Str("pg_code", postgresErrorCode(err)).
			Msg("failed to execute list query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.WireRecord, 0, 50)
	for rows.Next() {
		rec := models.WireRecord{Marker: models.Clean}
		if scanErr := rows.Scan(&rec.ID, &rec.LastModified, &rec.Payload); scanErr != nil {
			log.Err(scanErr).
				Str("func", "recordRepository.ListRecords").
				Str("collection", collection).
				Msg("failed to scan record row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		records = append(records, rec)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "recordRepository.ListRecords").
			Str("collection", collection).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, rowsErr)
	}

	return records, nil
}

// UpsertRecord implements RecordRepository. A transiently failing statement
// (connection loss, deadlock rollback) is retried once.
func (r *recordRepository) UpsertRecord(ctx context.Context, collection string, record models.WireRecord) error {
	log := logger.FromContext(ctx)

	query, args, err := psql.
		Insert("records").
		Columns("collection", "record_id", "last_modified", "payload").
		Values(collection, record.ID, record.LastModified, []byte(record.Payload)).
		Suffix(`ON CONFLICT (collection, record_id) DO UPDATE SET
			last_modified = EXCLUDED.last_modified,
			payload = EXCLUDED.payload`).
		ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.UpsertRecord").
			Str("record_id", record.ID).
			Msg("failed to build upsert query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if err = r.execWithRetry(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "recordRepository.UpsertRecord").
			Str("collection", collection).
			Str("record_id", record.ID).
			Str("pg_code", postgresErrorCode(err)).
			Msg("failed to upsert record")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// DeleteRecord implements RecordRepository.
func (r *recordRepository) DeleteRecord(ctx context.Context, collection, id string) error {
	log := logger.FromContext(ctx)

	query, args, err := psql.
		Delete("records").
		Where(sq.Eq{"collection": collection, "record_id": id}).
		ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.DeleteRecord").
			Str("record_id", id).
			Msg("failed to build delete query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.DeleteRecord").
			Str("collection", collection).
			Str("record_id", id).
			Str("pg_code", postgresErrorCode(err)).
			Msg("failed to delete record")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// execWithRetry executes a statement, repeating it once when the classifier
// reports the failure as transient.
func (r *recordRepository) execWithRetry(ctx context.Context, query string, args ...any) error {
	_, err := r.DB.ExecContext(ctx, query, args...)
	if err == nil || r.errorClassifier.Classify(err) != Retryable {
		return err
	}

	logger.FromContext(ctx).Warn().Err(err).
		Str("pg_code", postgresErrorCode(err)).
		Msg("retrying statement after transient database error")

	_, err = r.DB.ExecContext(ctx, query, args...)
	return err
}
