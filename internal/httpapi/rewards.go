package httpapi

import (
	"net/http"

	"log/slog"

	"github.com/organizador/platform/internal/domain/rewards"
)

type rewardCreateRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	RewardType     string  `json:"reward_type"`
	PointsRequired flexInt `json:"points_required"`
}

type rewardUpdateRequest struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	PointsRequired *flexInt `json:"points_required"`
	Achieved       *bool    `json:"achieved"`
}

func registerRewardRoutes(mux *http.ServeMux, logger *slog.Logger, ident identifier, service rewards.Service) {
	mux.HandleFunc("GET /api/rewards", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		list, err := service.List(r.Context(), userID)
		if err != nil {
			respondServiceError(w, logger, "list rewards", err, "user_id", userID)
			return
		}
		respondList(w, list)
	}))

	mux.HandleFunc("POST /api/rewards", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		var req rewardCreateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		reward, err := service.Create(r.Context(), userID, rewards.CreateInput{
			Name:           req.Name,
			Description:    req.Description,
			RewardType:     req.RewardType,
			PointsRequired: int(req.PointsRequired),
		})
		if err != nil {
			respondServiceError(w, logger, "create reward", err, "user_id", userID)
			return
		}
		respondJSON(w, http.StatusCreated, reward)
	}))

	mux.HandleFunc("PUT /api/rewards/{id}", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req rewardUpdateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		input := rewards.UpdateInput{Name: req.Name, Description: req.Description, Achieved: req.Achieved}
		if req.PointsRequired != nil {
			n := int(*req.PointsRequired)
			input.PointsRequired = &n
		}
		reward, err := service.Update(r.Context(), userID, id, input)
		if err != nil {
			respondServiceError(w, logger, "update reward", err, "user_id", userID, "reward_id", id)
			return
		}
		respondJSON(w, http.StatusOK, reward)
	}))

	mux.HandleFunc("DELETE /api/rewards/{id}", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := service.Delete(r.Context(), userID, id); err != nil {
			respondServiceError(w, logger, "delete reward", err, "user_id", userID, "reward_id", id)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "reward deleted"})
	}))

	mux.HandleFunc("POST /api/rewards/{id}/purchase", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		result, err := service.Purchase(r.Context(), userID, id)
		if err != nil {
			respondServiceError(w, logger, "purchase reward", err, "user_id", userID, "reward_id", id)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}))
}
