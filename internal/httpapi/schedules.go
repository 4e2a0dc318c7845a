package httpapi

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/organizador/platform/internal/domain/schedules"
)

type scheduleCreateRequest struct {
	ActivityID int64   `json:"activity_id"`
	Date       optDate `json:"scheduled_date"`
	Time       string  `json:"scheduled_time"`
	Duration   flexInt `json:"duration"`
}

type scheduleUpdateRequest struct {
	Date     optDate  `json:"scheduled_date"`
	Time     *string  `json:"scheduled_time"`
	Duration *flexInt `json:"duration"`
}

type replicateRequest struct {
	Type       string   `json:"type"`
	Until      optDate  `json:"until_date"`
	DaysOfWeek weekdays `json:"days_of_week"`
}

func registerScheduleRoutes(mux *http.ServeMux, logger *slog.Logger, ident identifier, service schedules.Service) {
	mux.HandleFunc("GET /api/schedules", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		weekStart, ok := queryDate(w, r, "week_start")
		if !ok {
			return
		}
		week, err := service.ListWeek(r.Context(), userID, weekStart)
		if err != nil {
			respondServiceError(w, logger, "list schedules", err, "user_id", userID)
			return
		}
		respondJSON(w, http.StatusOK, week)
	}))

	mux.HandleFunc("POST /api/schedules", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		var req scheduleCreateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Date.date == nil {
			respondError(w, http.StatusBadRequest, "scheduled_date is required")
			return
		}
		schedule, err := service.Create(r.Context(), userID, schedules.CreateInput{
			ActivityID: req.ActivityID,
			Date:       *req.Date.date,
			Time:       strings.TrimSpace(req.Time),
			Duration:   int(req.Duration),
		})
		if err != nil {
			respondServiceError(w, logger, "create schedule", err, "user_id", userID)
			return
		}
		respondJSON(w, http.StatusCreated, schedule)
	}))

	mux.HandleFunc("PUT /api/schedules/{id}", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req scheduleUpdateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		input := schedules.UpdateInput{Date: req.Date.date, Time: req.Time}
		if req.Duration != nil {
			d := int(*req.Duration)
			input.Duration = &d
		}
		schedule, err := service.Update(r.Context(), userID, id, input)
		if err != nil {
			respondServiceError(w, logger, "update schedule", err, "user_id", userID, "schedule_id", id)
			return
		}
		respondJSON(w, http.StatusOK, schedule)
	}))

	mux.HandleFunc("DELETE /api/schedules/{id}", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := service.Delete(r.Context(), userID, id); err != nil {
			respondServiceError(w, logger, "delete schedule", err, "user_id", userID, "schedule_id", id)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "schedule deleted"})
	}))

	mux.HandleFunc("POST /api/schedules/{id}/replicate", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req replicateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Until.date == nil {
			respondError(w, http.StatusBadRequest, "until_date is required")
			return
		}
		rule := schedules.Rule(strings.ToLower(strings.TrimSpace(req.Type)))
		if rule == "" {
			rule = schedules.RuleWeekly
		}

		created, err := service.Replicate(r.Context(), userID, id, schedules.ReplicateInput{
			Rule:       rule,
			Until:      *req.Until.date,
			DaysOfWeek: req.DaysOfWeek,
		})
		if err != nil {
			respondServiceError(w, logger, "replicate schedule", err, "user_id", userID, "schedule_id", id)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{
			"message":       "schedule replicated",
			"created_count": created,
		})
	}))
}
