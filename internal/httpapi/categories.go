package httpapi

import (
	"net/http"

	"log/slog"

	"github.com/organizador/platform/internal/domain/categories"
)

func registerCategoryRoutes(mux *http.ServeMux, logger *slog.Logger, ident identifier, service categories.Service) {
	mux.HandleFunc("GET /api/categories", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		list, err := service.List(r.Context(), userID)
		if err != nil {
			respondServiceError(w, logger, "list categories", err, "user_id", userID)
			return
		}
		respondList(w, list)
	}))

	mux.HandleFunc("POST /api/categories", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		var input categories.CreateInput
		if !decodeJSON(w, r, &input) {
			return
		}
		category, err := service.Create(r.Context(), userID, input)
		if err != nil {
			respondServiceError(w, logger, "create category", err, "user_id", userID)
			return
		}
		respondJSON(w, http.StatusCreated, category)
	}))

	mux.HandleFunc("PUT /api/categories/{id}", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var input categories.UpdateInput
		if !decodeJSON(w, r, &input) {
			return
		}
		category, err := service.Update(r.Context(), userID, id, input)
		if err != nil {
			respondServiceError(w, logger, "update category", err, "user_id", userID, "category_id", id)
			return
		}
		respondJSON(w, http.StatusOK, category)
	}))

	mux.HandleFunc("DELETE /api/categories/{id}", ident.wrap(func(w http.ResponseWriter, r *http.Request, userID int64) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := service.Delete(r.Context(), userID, id); err != nil {
			respondServiceError(w, logger, "delete category", err, "user_id", userID, "category_id", id)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
	}))
}
