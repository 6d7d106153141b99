package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"saas-tenancy/internal/catalog"
	"saas-tenancy/internal/store"
	"saas-tenancy/internal/tenancy"
)

// maxBody bounds request bodies.
const maxBody = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad request body"})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps domain errors onto HTTP statuses.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case store.IsCrossTenantWrite(err):
		status = http.StatusForbidden
	case errors.Is(err, store.ErrNotFound), errors.Is(err, tenancy.ErrTenantNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateIdentifier), errors.Is(err, store.ErrTenantConflict):
		status = http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, store.ErrInvalidTenant),
		errors.Is(err, tenancy.ErrTenantRequired):
		status = http.StatusBadRequest
	default:
		a.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
