package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/logger"
)

// retryAfterSeconds is advertised when the transfer ledger cannot answer
const retryAfterSeconds = 30

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps the service error taxonomy onto HTTP statuses
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		conflict   *domain.ConflictError
		validation *domain.ValidationError
		immutable  *domain.ImmutableError
		dependency *domain.DependencyError
	)
	switch {
	case errors.As(err, &conflict):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: validation.Message, Problems: validation.Problems})
	case errors.As(err, &immutable):
		writeMessage(w, http.StatusLocked, err.Error())
	case errors.As(err, &dependency):
		logger.Warn("Transfer ledger unavailable", "path", r.URL.Path, "error", err)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		writeMessage(w, http.StatusServiceUnavailable, "temporarily unable to confirm availability, retry later")
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidUnlockPassword), errors.Is(err, domain.ErrUnlockNotConfigured):
		writeMessage(w, http.StatusForbidden, err.Error())
	default:
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("invalid request body", err.Error())
	}
	return nil
}

func pathInt32(r *http.Request, name string) (int32, error) {
	v, err := strconv.ParseInt(mux.Vars(r)[name], 10, 32)
	if err != nil {
		return 0, domain.NewValidationError("invalid path parameter", name+" must be an integer")
	}
	return int32(v), nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, domain.NewValidationError("invalid path parameter", name+" must be an integer")
	}
	return v, nil
}
