package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrConflict):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError hides internal error text behind a generic message for 5xx other than 503.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		slog.Error("request_failed", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
		message = "internal server error"
	case http.StatusServiceUnavailable:
		slog.Warn("request_degraded", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
		w.Header().Set("Retry-After", "5")
		message = "prediction service is temporarily unavailable, please retry"
	case http.StatusRequestEntityTooLarge:
		message = "uploaded file is too large"
	}
	writeJSON(w, status, map[string]string{"error": message})
}
