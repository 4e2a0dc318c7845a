package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/organizador/platform/internal/domain"
	"github.com/organizador/platform/internal/domain/activities"
	"github.com/organizador/platform/internal/seed"
)

// checkedEndpoints are replayed by the health check.
var checkedEndpoints = []string{
	"/api/categories",
	"/api/activities",
	"/api/progress/recent",
	"/api/schedules",
	"/api/points",
	"/api/streak",
	"/api/rewards",
	"/api/dashboard/stats",
}

type endpointStatus struct {
	Status int  `json:"status"`
	OK     bool `json:"ok"`
}

type resetRequest struct {
	Profile string `json:"profile"`
}

func registerOperationRoutes(mux *http.ServeMux, logger *slog.Logger, ident identifier, services domain.Container, opts Options) {
	now := opts.now

	mux.HandleFunc("GET /api/health", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		userCount, err := services.Users.Count(r.Context())
		if err != nil {
			respondServiceError(w, logger, "health", err)
			return
		}
		list, err := services.Activities.List(r.Context(), userID, activities.Filter{})
		if err != nil {
			respondServiceError(w, logger, "health", err, "user_id", userID)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"status":     "healthy",
			"users":      userCount,
			"activities": len(list),
			"user_id":    userID,
			"timestamp":  now().UTC().Format(time.RFC3339),
		})
	}))

	mux.HandleFunc("GET /api/health/check", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		results := make(map[string]endpointStatus, len(checkedEndpoints))
		healthy := 0
		for _, path := range checkedEndpoints {
			req := httptest.NewRequestWithContext(r.Context(), http.MethodGet, path, nil)
			req.Header.Set(UserHeader, strconv.FormatInt(userID, 10))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			ok := rec.Code == http.StatusOK
			if ok {
				healthy++
			} else {
				logger.Warn("health check endpoint failed", "path", path, "status", rec.Code)
			}
			results[path] = endpointStatus{Status: rec.Code, OK: ok}
		}

		status := "online"
		if healthy < len(checkedEndpoints) {
			status = "partial"
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"status":    status,
			"healthy":   healthy,
			"total":     len(checkedEndpoints),
			"endpoints": results,
			"timestamp": now().UTC().Format(time.RFC3339),
		})
	}))

	mux.HandleFunc("GET /api/database/info", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		userCount, err := services.Users.Count(r.Context())
		if err != nil {
			respondServiceError(w, logger, "database info", err)
			return
		}
		list, err := services.Activities.List(r.Context(), userID, activities.Filter{})
		if err != nil {
			respondServiceError(w, logger, "database info", err, "user_id", userID)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"backend":    opts.Backend,
			"persistent": opts.Persistent,
			"users":      userCount,
			"activities": len(list),
		})
	}))

	mux.HandleFunc("POST /api/account/reset", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		req := resetRequest{Profile: seed.ProfileSample}
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		profile := strings.TrimSpace(req.Profile)
		if profile == "" {
			profile = seed.ProfileSample
		}

		summary, err := seed.ResetUser(r.Context(), services, userID, profile)
		if err != nil {
			respondServiceError(w, logger, "reset account", err, "user_id", userID, "profile", profile)
			return
		}
		logger.Info("account reset", "user_id", userID, "profile", profile)
		respondJSON(w, http.StatusOK, map[string]any{
			"message": "account reset",
			"profile": profile,
			"created": summary,
		})
	}))
}
