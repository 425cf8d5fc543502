package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fieldline/paydesk/internal/backend"
	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/models"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.APIError{
		Error: models.APIErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// respondError maps an internal error to an HTTP status and structured
// code. Backend classifications pass through with their own code; local
// sentinels carry the corresponding console code.
func respondError(w http.ResponseWriter, err error) {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusBadGateway
		switch apiErr.Code {
		case config.ErrorUnauthenticated:
			status = http.StatusUnauthorized
		case config.ErrorInsufficientBalance, config.ErrorNeedsVerification:
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, apiErr.Code, apiErr.Message)
		return
	}

	switch {
	case errors.Is(err, config.ErrOffline):
		writeError(w, http.StatusServiceUnavailable, config.ErrorOffline, err.Error())
	case errors.Is(err, config.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, config.ErrorUnauthenticated, err.Error())
	case errors.Is(err, config.ErrAmountBelowMinimum):
		writeError(w, http.StatusBadRequest, config.ErrorAmountBelowMinimum, err.Error())
	case errors.Is(err, config.ErrAgreementRequired):
		writeError(w, http.StatusBadRequest, config.ErrorAgreementRequired, err.Error())
	case errors.Is(err, config.ErrWrongStep):
		writeError(w, http.StatusConflict, config.ErrorWrongStep, err.Error())
	case errors.Is(err, config.ErrQuoteMissing):
		writeError(w, http.StatusConflict, config.ErrorQuoteMissing, err.Error())
	case errors.Is(err, config.ErrFlowFinished):
		writeError(w, http.StatusConflict, config.ErrorFlowFinished, err.Error())
	case errors.Is(err, config.ErrInvalidAddress):
		writeError(w, http.StatusUnprocessableEntity, config.ErrorInvalidAddress, err.Error())
	case errors.Is(err, config.ErrMalformedPayload):
		writeError(w, http.StatusBadGateway, config.ErrorMalformedPayload, err.Error())
	case errors.Is(err, config.ErrTableShape):
		writeError(w, http.StatusBadGateway, config.ErrorTableShape, err.Error())
	case errors.Is(err, config.ErrMissingColumn):
		writeError(w, http.StatusBadGateway, config.ErrorMissingColumn, err.Error())
	case errors.Is(err, config.ErrBackendRejected):
		writeError(w, http.StatusBadGateway, config.ErrorBackendRejected, err.Error())
	default:
		slog.Error("unclassified handler error", "error", err)
		writeError(w, http.StatusInternalServerError, config.ErrorInternal, "internal error")
	}
}

// decodeBody parses a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, config.ErrorBadRequest, "invalid request body")
		return false
	}
	return true
}
