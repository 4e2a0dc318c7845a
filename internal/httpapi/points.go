package httpapi

import (
	"net/http"

	"log/slog"

	"github.com/organizador/platform/internal/domain/points"
	"github.com/organizador/platform/internal/domain/streaks"
)

type pointsAddRequest struct {
	Points      flexInt `json:"points"`
	Description string  `json:"description"`
}

func registerPointsRoutes(mux *http.ServeMux, logger *slog.Logger, ident identifier, service points.Service, streakService streaks.Service) {
	mux.HandleFunc("GET /api/points", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		balance, err := service.Balance(r.Context(), userID)
		if err != nil {
			respondServiceError(w, logger, "get points", err, "user_id", userID)
			return
		}
		respondJSON(w, http.StatusOK, balance)
	}))

	mux.HandleFunc("GET /api/points/transactions", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		txs, err := service.Transactions(r.Context(), userID)
		if err != nil {
			respondServiceError(w, logger, "list transactions", err, "user_id", userID)
			return
		}
		respondList(w, txs)
	}))

	mux.HandleFunc("POST /api/points/add", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		var req pointsAddRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		balance, err := service.Add(r.Context(), userID, int(req.Points), req.Description)
		if err != nil {
			respondServiceError(w, logger, "add points", err, "user_id", userID)
			return
		}
		respondJSON(w, http.StatusOK, balance)
	}))

	mux.HandleFunc("GET /api/streak", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		status, err := streakService.Get(r.Context(), userID)
		if err != nil {
			respondServiceError(w, logger, "get streak", err, "user_id", userID)
			return
		}
		respondJSON(w, http.StatusOK, status)
	}))
}
