package store

import (
	"context"

	"github.com/cliniclink/recordsync/models"
)

//go:generate mockgen -source=record_repository.go -destination=../mock/record_repository_mock.go -package=mock

// RecordRepository is the record server's storage surface. The server keeps
// only confirmed records; sync markers are a client-side concern, so every
// record returned by ListRecords carries models.Clean.
type RecordRepository interface {
	// ListRecords returns every record of the collection in insertion order.
	ListRecords(ctx context.Context, collection string) ([]models.WireRecord, error)

	// UpsertRecord inserts the record or replaces an existing one with the
	// same id.
	UpsertRecord(ctx context.Context, collection string, record models.WireRecord) error

	// DeleteRecord removes the record with the given id. Deleting a missing
	// id returns ErrRecordNotFound.
	DeleteRecord(ctx context.Context, collection, id string) error
}

// Storages aggregates the server's repositories, so the composition root
// hands a single value to the service layer.
type Storages struct {
	RecordRepository RecordRepository
}

// NewStorages wires the PostgreSQL-backed repositories.
func NewStorages(db *DB) Storages {
	return Storages{
		RecordRepository: NewRecordRepository(db),
	}
}
