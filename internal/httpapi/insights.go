package httpapi

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/organizador/platform/internal/domain/insights"
)

func registerInsightRoutes(mux *http.ServeMux, logger *slog.Logger, ident identifier, service insights.Service) {
	mux.HandleFunc("GET /api/dashboard/stats", insightHandler(logger, ident, "dashboard stats", service.Dashboard))
	mux.HandleFunc("GET /api/profile/stats", insightHandler(logger, ident, "profile stats", service.Profile))
	mux.HandleFunc("GET /api/profile/complete", insightHandler(logger, ident, "complete profile", service.Complete))
	mux.HandleFunc("GET /api/profile/enhanced_stats", insightHandler(logger, ident, "enhanced stats", service.Enhanced))
	mux.HandleFunc("GET /api/profile/time_analysis", insightHandler(logger, ident, "time analysis", service.TimeAnalysis))
	mux.HandleFunc("GET /api/ai/profile_analysis", insightHandler(logger, ident, "profile analysis", service.AIAnalysis))

	mux.HandleFunc("GET /api/profile/historical", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		days, ok := queryInt(w, r, "days", insights.DefaultHistoryDays)
		if !ok {
			return
		}
		history, err := service.Historical(r.Context(), userID, days)
		if err != nil {
			respondServiceError(w, logger, "historical stats", err, "user_id", userID)
			return
		}
		respondJSON(w, http.StatusOK, history)
	}))
}

func insightHandler[T any](logger *slog.Logger, ident identifier, op string, fn func(context.Context, int64) (T, error)) http.HandlerFunc {
	return ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		result, err := fn(r.Context(), userID)
		if err != nil {
			respondServiceError(w, logger, op, err, "user_id", userID)
			return
		}
		respondJSON(w, http.StatusOK, result)
	})
}
