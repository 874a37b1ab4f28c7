package service

import (
	"github.com/cliniclink/recordsync/internal/logger"
	"github.com/cliniclink/recordsync/internal/store"
)

// Services aggregates the server's domain services for the composition root.
type Services struct {
	RecordService RecordService
}

// NewServices wires the domain services over the configured storages.
func NewServices(storages store.Storages, log *logger.Logger) *Services {
	return &Services{
		RecordService: NewRecordService(storages.RecordRepository, log),
	}
}
