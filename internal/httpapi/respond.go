package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/organizador/platform/internal/apperr"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"count": len(items),
	})
}

// respondServiceError maps classified domain errors to their status code.
// Anything unclassified is logged under op and reported as a 500.
func respondServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error, attrs ...any) {
	var appErr *apperr.Error
	message := err.Error()
	if errors.As(err, &appErr) {
		message = appErr.Error()
	}

	switch {
	case errors.Is(err, apperr.ErrInvalid):
		respondError(w, http.StatusBadRequest, message)
	case errors.Is(err, apperr.ErrNotFound):
		respondError(w, http.StatusNotFound, message)
	case errors.Is(err, apperr.ErrConflict):
		respondError(w, http.StatusConflict, message)
	default:
		logger.Error(op+" failed", append([]any{"err", err}, attrs...)...)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
