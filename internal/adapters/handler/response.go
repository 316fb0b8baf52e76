package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/movaware/payout-engine/internal/core/domain"
)

type envelope struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Error   *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// writeError maps domain errors to HTTP responses.
func writeError(w http.ResponseWriter, err error, logger *slog.Logger) {
	status := toHTTPStatus(err)
	code := toErrorCode(err)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error: &errorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

func toHTTPStatus(err error) int {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}

	switch de.Code {
	case domain.ErrCodeMissingField, domain.ErrCodeInvalidPhone, domain.ErrCodeInvalidAmount:
		return http.StatusBadRequest
	case domain.ErrCodeTransactionNotFound:
		return http.StatusNotFound
	case domain.ErrCodeInvalidTransition, domain.ErrCodeNotRetryable, domain.ErrCodeRetryExhausted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func toErrorCode(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL_ERROR"
}
