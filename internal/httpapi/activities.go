package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/organizador/platform/internal/domain/activities"
)

type activityCreateRequest struct {
	CategoryID       int64    `json:"category_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	TargetValue      *float64 `json:"target_value"`
	TargetUnit       string   `json:"target_unit"`
	ManualPercentage *float64 `json:"manual_percentage"`
	Status           string   `json:"status"`
	StartDate        optDate  `json:"start_date"`
	EndDate          optDate  `json:"end_date"`
	Deadline         optDate  `json:"deadline"`
	ParentID         *int64   `json:"parent_activity_id"`
}

type activityUpdateRequest struct {
	CategoryID       *int64           `json:"category_id"`
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	MeasurementType  *string          `json:"measurement_type"`
	TargetValue      *float64         `json:"target_value"`
	TargetUnit       *string          `json:"target_unit"`
	ManualPercentage *float64         `json:"manual_percentage"`
	Status           *string          `json:"status"`
	StartDate        optDate          `json:"start_date"`
	EndDate          optDate          `json:"end_date"`
	Deadline         optDate          `json:"deadline"`
	ParentID         optional[int64]  `json:"parent_activity_id"`
}

func (req activityUpdateRequest) input() activities.UpdateInput {
	input := activities.UpdateInput{
		CategoryID:       req.CategoryID,
		Name:             req.Name,
		Description:      req.Description,
		TargetValue:      req.TargetValue,
		TargetUnit:       req.TargetUnit,
		ManualPercentage: req.ManualPercentage,
		StartDate:        req.StartDate.date,
		EndDate:          req.EndDate.date,
		Deadline:         req.Deadline.date,
	}
	if req.MeasurementType != nil {
		m := activities.MeasurementType(strings.TrimSpace(*req.MeasurementType))
		input.MeasurementType = &m
	}
	if req.Status != nil {
		s := activities.Status(strings.TrimSpace(*req.Status))
		input.Status = &s
	}
	if req.ParentID.set {
		if req.ParentID.value == nil {
			input.ClearParent = true
		} else {
			input.ParentID = req.ParentID.value
		}
	}
	return input
}

func registerActivityRoutes(mux *http.ServeMux, logger *slog.Logger, ident identifier, service activities.Service) {
	mux.HandleFunc("GET /api/activities", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		handleActivityList(w, r, logger, service, userID)
	}))
	mux.HandleFunc("POST /api/activities", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		handleActivityCreate(w, r, logger, service, userID)
	}))

	mux.HandleFunc("GET /api/activities/hierarchy", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		tree, err := service.Hierarchy(r.Context(), userID)
		if err != nil {
			respondServiceError(w, logger, "activity hierarchy", err, "user_id", userID)
			return
		}
		respondList(w, tree)
	}))

	mux.HandleFunc("GET /api/activities/{id}", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		detail, err := service.Get(r.Context(), userID, id)
		if err != nil {
			respondServiceError(w, logger, "get activity", err, "user_id", userID, "activity_id", id)
			return
		}
		respondJSON(w, http.StatusOK, detail)
	}))

	mux.HandleFunc("PUT /api/activities/{id}", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req activityUpdateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		activity, err := service.Update(r.Context(), userID, id, req.input())
		if err != nil {
			respondServiceError(w, logger, "update activity", err, "user_id", userID, "activity_id", id)
			return
		}
		respondJSON(w, http.StatusOK, activity)
	}))

	mux.HandleFunc("DELETE /api/activities/{id}", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := service.Delete(r.Context(), userID, id); err != nil {
			respondServiceError(w, logger, "delete activity", err, "user_id", userID, "activity_id", id)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "activity deleted"})
	}))
}

func handleActivityList(w http.ResponseWriter, r *http.Request, logger *slog.Logger, service activities.Service, userID int64) {
	var filter activities.Filter
	query := r.URL.Query()
	if v := query.Get("category_id"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "invalid category_id parameter")
			return
		}
		filter.CategoryID = parsed
	}
	if v := query.Get("status"); v != "" {
		filter.Status = activities.Status(v)
		if !filter.Status.Valid() {
			respondError(w, http.StatusBadRequest, "invalid status parameter")
			return
		}
	}

	list, err := service.List(r.Context(), userID, filter)
	if err != nil {
		respondServiceError(w, logger, "list activities", err, "user_id", userID)
		return
	}
	respondList(w, list)
}

func handleActivityCreate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, service activities.Service, userID int64) {
	var req activityCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	activity, err := service.Create(r.Context(), userID, activities.CreateInput{
		CategoryID:       req.CategoryID,
		Name:             req.Name,
		Description:      req.Description,
		TargetValue:      req.TargetValue,
		TargetUnit:       req.TargetUnit,
		ManualPercentage: req.ManualPercentage,
		Status:           activities.Status(strings.TrimSpace(req.Status)),
		StartDate:        req.StartDate.date,
		EndDate:          req.EndDate.date,
		Deadline:         req.Deadline.date,
		ParentID:         req.ParentID,
	})
	if err != nil {
		respondServiceError(w, logger, "create activity", err, "user_id", userID)
		return
	}
	respondJSON(w, http.StatusCreated, activity)
}
