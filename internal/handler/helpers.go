package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

// errorResponse carries the page the client should move to when the
// failure implies a transition (missing session, missing resume, ...).
type errorResponse struct {
	Error    string `json:"error"`
	Field    string `json:"field,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func parsePage(r *http.Request) int {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	return page
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var external *domain.ErrExternalService
	var validation *domain.ErrValidation
	var forbidden *domain.ErrForbidden
	var unauthorized *domain.ErrUnauthorized
	var conflict *domain.ErrConflict
	var corrupt *domain.ErrCorruptRecord

	resp := errorResponse{Error: err.Error(), Redirect: domain.RedirectOf(err)}
	status := http.StatusInternalServerError

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		status = http.StatusBadRequest
		resp.Error = validation.Message
		resp.Field = validation.Field
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		status = http.StatusNotFound
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		status = http.StatusUnauthorized
		resp.Error = unauthorized.Error()
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		status = http.StatusForbidden
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		status = http.StatusConflict
		resp.Error = conflict.Message
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		status = http.StatusServiceUnavailable
	case errors.As(err, &external):
		logger.Error("external service error", zap.String("service", external.Service), zap.Error(err))
		status = http.StatusBadGateway
	case errors.As(err, &corrupt):
		logger.Error("corrupt record", zap.String("key", corrupt.Key), zap.Error(err))
		resp.Error = "internal server error"
	default:
		logger.Error("unhandled error", zap.Error(err))
		resp.Error = "internal server error"
	}

	writeJSON(w, status, resp)
}
