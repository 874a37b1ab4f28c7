package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cliniclink/recordsync/internal/logger"
	"github.com/cliniclink/recordsync/internal/store"
	"github.com/cliniclink/recordsync/models"
)

// recordService implements RecordService over a store.RecordRepository.
type recordService struct {
	repo   store.RecordRepository
	logger *logger.Logger
	clock  func() time.Time
}

// NewRecordService constructs a RecordService backed by the provided
// repository.
func NewRecordService(repo store.RecordRepository, log *logger.Logger) RecordService {
	return &recordService{
		repo:   repo,
		logger: log,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// ListRecords implements RecordService.
func (s *recordService) ListRecords(ctx context.Context, collection string) ([]models.WireRecord, error) {
	if collection == "" {
		return nil, ErrEmptyCollection
	}
	return s.repo.ListRecords(ctx, collection)
}

// PushRecords implements RecordService. Each pending mutation is applied
// independently; a failure skips the record without aborting the batch, so a
// partially accepted push confirms everything that did apply.
func (s *recordService) PushRecords(ctx context.Context, collection string, records []models.WireRecord) ([]string, error) {
	log := logger.FromContext(ctx)

	if collection == "" {
		return nil, ErrEmptyCollection
	}

	confirmed := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			log.Warn().
				Str("func", "recordService.PushRecords").
				Str("collection", collection).
				Msg("skipping record without id")
			continue
		}

		if err := s.applyMutation(ctx, collection, rec); err != nil {
			log.Warn().Err(err).
				Str("func", "recordService.PushRecords").
				Str("collection", collection).
				Str("record_id", rec.ID).
				Str("marker", string(rec.Marker)).
				Msg("failed to apply pushed mutation, leaving unconfirmed")
			continue
		}
		confirmed = append(confirmed, rec.ID)
	}

	log.Info().
		Str("collection", collection).
		Int("pushed", len(records)).
		Int("confirmed", len(confirmed)).
		Msg("push batch applied")
	return confirmed, nil
}

func (s *recordService) applyMutation(ctx context.Context, collection string, rec models.WireRecord) error {
	switch rec.Marker {
	case models.PendingCreate, models.PendingUpdate:
		rec.Marker = models.Clean
		rec.LastModified = s.clock()
		return s.repo.UpsertRecord(ctx, collection, rec)

	case models.PendingDelete:
		err := s.repo.DeleteRecord(ctx, collection, rec.ID)
		if err == nil || errors.Is(err, store.ErrRecordNotFound) {
			// deleting a record the server never had (or already dropped) is
			// still a confirmed deletion
			return nil
		}
		return err

	case models.Clean:
		// nothing pending; confirm without touching storage
		return nil

	default:
		return fmt.Errorf("unknown sync marker %q", rec.Marker)
	}
}

// UpsertRecord implements RecordService.
func (s *recordService) UpsertRecord(ctx context.Context, collection string, record models.WireRecord) (models.WireRecord, error) {
	if collection == "" {
		return models.WireRecord{}, ErrEmptyCollection
	}
	if record.ID == "" {
		return models.WireRecord{}, ErrEmptyRecordID
	}

	record.Marker = models.Clean
	record.LastModified = s.clock()
	if err := s.repo.UpsertRecord(ctx, collection, record); err != nil {
		return models.WireRecord{}, err
	}
	return record, nil
}

// DeleteRecord implements RecordService.
func (s *recordService) DeleteRecord(ctx context.Context, collection, id string) error {
	if collection == "" {
		return ErrEmptyCollection
	}
	if id == "" {
		return ErrEmptyRecordID
	}
	return s.repo.DeleteRecord(ctx, collection, id)
}
