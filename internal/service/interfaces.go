// Package service holds the record server's domain logic: validation of
// incoming records and translation of client push batches into repository
// operations.
package service

import (
	"context"

	"github.com/cliniclink/recordsync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/record_service_mock.go -package=mock

// RecordService is the server's domain surface over the record repository.
type RecordService interface {
	// ListRecords returns the full confirmed state of a collection.
	ListRecords(ctx context.Context, collection string) ([]models.WireRecord, error)

	// PushRecords applies a batch of pending client mutations and returns the
	// ids that were confirmed. A record that fails to apply is simply absent
	// from the confirmed list; the client retries it on a later pass.
	PushRecords(ctx context.Context, collection string, records []models.WireRecord) ([]string, error)

	// UpsertRecord stores a single record as confirmed, stamping the server's
	// write time. Returns the stored record.
	UpsertRecord(ctx context.Context, collection string, record models.WireRecord) (models.WireRecord, error)

	// DeleteRecord removes a record from the collection.
	DeleteRecord(ctx context.Context, collection, id string) error
}
