package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/organizador/platform/internal/domain/users"
)

// UserHeader names the caller on tracker requests.
const UserHeader = "X-User-ID"

type userHandler func(w http.ResponseWriter, r *http.Request, userID int64)

type identifier struct {
	logger    *slog.Logger
	users     users.Service
	defaultID int64
}

// resolve returns the caller's user id from the header, falling back to the
// configured default. The user must exist.
func (id identifier) resolve(r *http.Request) (int64, error) {
	userID := id.defaultID
	if raw := strings.TrimSpace(r.Header.Get(UserHeader)); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, users.ErrNotFound
		}
		userID = parsed
	}
	if userID <= 0 {
		return 0, users.ErrNotFound
	}
	if _, err := id.users.Get(r.Context(), userID); err != nil {
		return 0, err
	}
	return userID, nil
}

func (id identifier) wrap(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := id.resolve(r)
		if err != nil {
			if !errors.Is(err, users.ErrNotFound) {
				id.logger.Error("resolve user failed", "err", err)
				respondError(w, http.StatusInternalServerError, "internal error")
				return
			}
			respondError(w, http.StatusUnauthorized, "user not identified")
			return
		}
		next(w, r, userID)
	}
}
