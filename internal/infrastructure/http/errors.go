package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"lessonquote-service/internal/application"
	"lessonquote-service/internal/domain"
	"lessonquote-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

type errorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorEnvelope{Code: status, Message: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

// writeAppError maps application and domain errors onto HTTP statuses.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logx.WithFields(r.Context()).Error("request_failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, status, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, application.ErrBadRequest),
		errors.Is(err, domain.ErrInvalidCourseType),
		errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrUnsupportedCurrency):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, application.ErrConflict):
		return http.StatusConflict, "duplicate request"
	case errors.Is(err, application.ErrSlotUnavailable):
		return http.StatusConflict, "time slot no longer available"
	case errors.Is(err, application.ErrStaleQuote):
		return http.StatusConflict, "selection changed while pricing, retry"
	case errors.Is(err, application.ErrQuoteUnavailable):
		return http.StatusUnprocessableEntity, "no valid quote for the current selection"
	case errors.Is(err, application.ErrRatesUnavailable):
		return http.StatusServiceUnavailable, "exchange rates unavailable"
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}
