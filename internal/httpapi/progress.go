package httpapi

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/organizador/platform/internal/domain/activities"
	"github.com/organizador/platform/internal/domain/progress"
)

type progressRequest struct {
	ActivityID      int64   `json:"activity_id"`
	Value           float64 `json:"value"`
	Unit            string  `json:"unit"`
	Notes           string  `json:"notes"`
	Completed       bool    `json:"completed"`
	FromSchedule    bool    `json:"from_schedule"`
	Date            optDate `json:"date"`
	MeasurementType string  `json:"measurement_type"`
}

func registerProgressRoutes(mux *http.ServeMux, logger *slog.Logger, ident identifier, service progress.Service) {
	mux.HandleFunc("POST /api/progress", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		var req progressRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		result, err := service.Record(r.Context(), userID, progress.RecordInput{
			ActivityID:      req.ActivityID,
			Value:           req.Value,
			Unit:            req.Unit,
			Notes:           req.Notes,
			Completed:       req.Completed,
			FromSchedule:    req.FromSchedule,
			Date:            req.Date.date,
			MeasurementType: activities.MeasurementType(strings.TrimSpace(req.MeasurementType)),
		})
		if err != nil {
			respondServiceError(w, logger, "record progress", err, "user_id", userID, "activity_id", req.ActivityID)
			return
		}
		respondJSON(w, http.StatusCreated, result)
	}))

	mux.HandleFunc("GET /api/progress/recent", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		since, ok := queryDate(w, r, "since")
		if !ok {
			return
		}
		entries, err := service.Recent(r.Context(), userID, since)
		if err != nil {
			respondServiceError(w, logger, "recent progress", err, "user_id", userID)
			return
		}
		respondList(w, entries)
	}))
}
