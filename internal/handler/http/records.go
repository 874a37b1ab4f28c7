package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cliniclink/recordsync/internal/logger"
	"github.com/cliniclink/recordsync/models"
)

type pushRequest struct {
	Collection string              `json:"collection"`
	Records    []models.WireRecord `json:"records"`
}

type pushResponse struct {
	Confirmed []string `json:"confirmed"`
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	collection := r.URL.Query().Get("collection")

	records, err := h.services.RecordService.ListRecords(ctx, collection)
	if err != nil {
		log.Error().Err(err).Str("collection", collection).Msg("listing records failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) pushRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req pushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("decoding push request failed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	confirmed, err := h.services.RecordService.PushRecords(ctx, req.Collection, req.Records)
	if err != nil {
		log.Error().Err(err).Str("collection", req.Collection).Msg("applying push batch failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	if confirmed == nil {
		confirmed = []string{}
	}
	writeJSON(w, http.StatusOK, pushResponse{Confirmed: confirmed})
}

func (h *Handler) upsertRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	collection := r.URL.Query().Get("collection")

	var rec models.WireRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		log.Error().Err(err).Msg("decoding record failed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	// The path is authoritative for the record id.
	rec.ID = chi.URLParam(r, "id")

	stored, err := h.services.RecordService.UpsertRecord(ctx, collection, rec)
	if err != nil {
		log.Error().Err(err).Str("collection", collection).Str("record_id", rec.ID).Msg("upserting record failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	writeJSON(w, http.StatusOK, stored)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	collection := r.URL.Query().Get("collection")
	id := chi.URLParam(r, "id")

	if err := h.services.RecordService.DeleteRecord(ctx, collection, id); err != nil {
		log.Error().Err(err).Str("collection", collection).Str("record_id", id).Msg("deleting record failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
