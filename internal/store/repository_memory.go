package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cliniclink/recordsync/models"
)

// memoryRecordRepository is a process-local RecordRepository. The server
// falls back to it when no database DSN is configured; handler tests use it
// directly.
type memoryRecordRepository struct {
	mu          sync.RWMutex
	collections map[string]*models.Snapshot[json.RawMessage]
}

// NewMemoryRecordRepository returns an empty in-memory RecordRepository.
func NewMemoryRecordRepository() RecordRepository {
	return &memoryRecordRepository{
		collections: make(map[string]*models.Snapshot[json.RawMessage]),
	}
}

func (m *memoryRecordRepository) ListRecords(_ context.Context, collection string) ([]models.WireRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.collections[collection]
	if !ok {
		return []models.WireRecord{}, nil
	}
	return snap.All(), nil
}

func (m *memoryRecordRepository) UpsertRecord(_ context.Context, collection string, record models.WireRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.collections[collection]
	if !ok {
		snap = models.NewSnapshot[json.RawMessage]()
		m.collections[collection] = snap
	}
	record.Marker = models.Clean
	snap.Put(record)
	return nil
}

func (m *memoryRecordRepository) DeleteRecord(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.collections[collection]
	if !ok {
		return ErrRecordNotFound
	}
	if _, exists := snap.Get(id); !exists {
		return ErrRecordNotFound
	}
	snap.Delete(id)
	return nil
}
