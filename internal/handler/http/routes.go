package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	router.Get("/ping", h.ping)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/records", func(r chi.Router) {
		r.Get("/", h.listRecords)
		r.Post("/push", h.pushRecords)
		r.Put("/{id}", h.upsertRecord)
		r.Delete("/{id}", h.deleteRecord)
	})

	return router
}

func (h *Handler) ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
