// Package http exposes the record server's REST API: collection listing for
// agents, push batches of pending mutations, single-record upsert/delete, a
// /ping probe endpoint, and Prometheus metrics.
package http

import (
	"github.com/cliniclink/recordsync/internal/logger"
	"github.com/cliniclink/recordsync/internal/service"
)

type Handler struct {
	services *service.Services

	logger *logger.Logger
}

func NewHandler(services *service.Services, log *logger.Logger) *Handler {
	log.Info().Msg("http handler created")
	return &Handler{
		services: services,
		logger:   log,
	}
}
