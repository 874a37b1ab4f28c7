package http

import (
	"errors"
	"net/http"

	"github.com/cliniclink/recordsync/internal/service"
	"github.com/cliniclink/recordsync/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrEmptyCollection: http.StatusBadRequest,
	service.ErrEmptyRecordID:   http.StatusBadRequest,

	store.ErrRecordNotFound: http.StatusNotFound,

	store.ErrBuildingSQLQuery: http.StatusInternalServerError,
	store.ErrExecutingQuery:   http.StatusInternalServerError,
	store.ErrScanningRow:      http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
