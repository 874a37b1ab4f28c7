package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliniclink/recordsync/internal/logger"
	"github.com/cliniclink/recordsync/models"
)

func newRecordRepoMock(t *testing.T) (RecordRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRecordRepository(NewDBFromSQL(db, logger.Nop())), mock
}

func TestRecordRepository_ListRecords(t *testing.T) {
	repo, mock := newRecordRepoMock(t)
	now := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT record_id, last_modified, payload FROM records").
		WithArgs("vitals").
		WillReturnRows(sqlmock.NewRows([]string{"record_id", "last_modified", "payload"}).
			AddRow("rec-1", now, []byte(`{"patient":"p-102"}`)).
			AddRow("rec-2", now, []byte(`{"patient":"p-103"}`)))

	records, err := repo.ListRecords(context.Background(), "vitals")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "rec-1", records[0].ID)
	assert.Equal(t, models.Clean, records[0].Marker, "server records are always confirmed")
	assert.Equal(t, json.RawMessage(`{"patient":"p-103"}`), records[1].Payload)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_ListRecords_QueryError(t *testing.T) {
	repo, mock := newRecordRepoMock(t)

	mock.ExpectQuery("SELECT record_id, last_modified, payload FROM records").
		WithArgs("vitals").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.ListRecords(context.Background(), "vitals")
	assert.ErrorIs(t, err, ErrExecutingQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_UpsertRecord(t *testing.T) {
	repo, mock := newRecordRepoMock(t)
	now := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO records").
		WithArgs("vitals", "rec-1", now, []byte(`{"patient":"p-102"}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.UpsertRecord(context.Background(), "vitals", models.WireRecord{
		ID:           "rec-1",
		LastModified: now,
		Marker:       models.Clean,
		Payload:      json.RawMessage(`{"patient":"p-102"}`),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_UpsertRecord_RetriesTransientFailure(t *testing.T) {
	repo, mock := newRecordRepoMock(t)
	now := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO records").
		WithArgs("vitals", "rec-1", now, []byte(`{}`)).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.DeadlockDetected})
	mock.ExpectExec("INSERT INTO records").
		WithArgs("vitals", "rec-1", now, []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.UpsertRecord(context.Background(), "vitals", models.WireRecord{
		ID:           "rec-1",
		LastModified: now,
		Payload:      json.RawMessage(`{}`),
	})
	require.NoError(t, err, "a deadlock rollback is retried once")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_UpsertRecord_NonRetryableFails(t *testing.T) {
	repo, mock := newRecordRepoMock(t)
	now := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO records").
		WithArgs("vitals", "rec-1", now, []byte(`{}`)).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.NotNullViolation})

	err := repo.UpsertRecord(context.Background(), "vitals", models.WireRecord{
		ID:           "rec-1",
		LastModified: now,
		Payload:      json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, ErrExecutingQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_DeleteRecord(t *testing.T) {
	repo, mock := newRecordRepoMock(t)

	mock.ExpectExec("DELETE FROM records").
		WithArgs("vitals", "rec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteRecord(context.Background(), "vitals", "rec-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_DeleteRecord_Missing(t *testing.T) {
	repo, mock := newRecordRepoMock(t)

	mock.ExpectExec("DELETE FROM records").
		WithArgs("vitals", "rec-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteRecord(context.Background(), "vitals", "rec-1")
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresErrorClassifier(t *testing.T) {
	c := NewPostgresErrorClassifier()

	assert.Equal(t, NonRetryable, c.Classify(nil))
	assert.Equal(t, NonRetryable, c.Classify(errors.New("plain error")))
	assert.Equal(t, Retryable, c.Classify(&pgconn.PgError{Code: pgerrcode.ConnectionFailure}))
	assert.Equal(t, Retryable, c.Classify(&pgconn.PgError{Code: pgerrcode.SerializationFailure}))
	assert.Equal(t, NonRetryable, c.Classify(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
}

func TestMemoryRecordRepository(t *testing.T) {
	repo := NewMemoryRecordRepository()
	ctx := context.Background()

	records, err := repo.ListRecords(ctx, "vitals")
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, repo.UpsertRecord(ctx, "vitals", models.WireRecord{
		ID: "rec-1", Payload: json.RawMessage(`{"v":1}`),
	}))
	require.NoError(t, repo.UpsertRecord(ctx, "vitals", models.WireRecord{
		ID: "rec-2", Payload: json.RawMessage(`{"v":2}`),
	}))
	require.NoError(t, repo.UpsertRecord(ctx, "vitals", models.WireRecord{
		ID: "rec-1", Payload: json.RawMessage(`{"v":3}`),
	}))

	records, err = repo.ListRecords(ctx, "vitals")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "rec-1", records[0].ID, "an upsert keeps the original position")
	assert.Equal(t, json.RawMessage(`{"v":3}`), records[0].Payload)
	assert.Equal(t, models.Clean, records[0].Marker)

	require.NoError(t, repo.DeleteRecord(ctx, "vitals", "rec-1"))
	assert.ErrorIs(t, repo.DeleteRecord(ctx, "vitals", "rec-1"), ErrRecordNotFound)
	assert.ErrorIs(t, repo.DeleteRecord(ctx, "labs", "rec-9"), ErrRecordNotFound)
}
