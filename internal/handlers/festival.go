package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"festival-cleanup-backend/internal/middleware"
	"festival-cleanup-backend/internal/models"
	"festival-cleanup-backend/internal/services"
)

// FestivalHandler handles festival-related HTTP requests
type FestivalHandler struct {
	festivalService *services.FestivalService
}

// NewFestivalHandler creates a new festival handler
func NewFestivalHandler(festivalService *services.FestivalService) *FestivalHandler {
	return &FestivalHandler{
		festivalService: festivalService,
	}
}

// List handles GET /api/v1/festivals
func (h *FestivalHandler) List(w http.ResponseWriter, r *http.Request) {
	festivals, err := h.festivalService.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list festivals")
		respondError(w, "Failed to list festivals", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"festivals": festivals})
}

// FestivalResponse represents a festival with its registered bins
type FestivalResponse struct {
	Festival *models.Festival   `json:"festival"`
	Bins     []*models.TrashBin `json:"bins"`
}

// Get handles GET /api/v1/festivals/{id}
func (h *FestivalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	festival, bins, err := h.festivalService.Get(r.Context(), id)
	if err != nil {
		respondError(w, "Festival not found", statusForError(err))
		return
	}

	respondJSON(w, http.StatusOK, FestivalResponse{Festival: festival, Bins: bins})
}

// Shops handles GET /api/v1/festivals/{id}/shops
func (h *FestivalHandler) Shops(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"shops": h.festivalService.Shops(r.Context(), id),
	})
}

// MySummary handles GET /api/v1/festivals/{id}/me/summary
func (h *FestivalHandler) MySummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := middleware.GetUserID(r.Context())

	festival, summary, err := h.festivalService.UserSummary(r.Context(), userID, id)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("festival_id", id).
			Msg("Failed to load daily summary")
		respondError(w, "Failed to load summary", statusForError(err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"summary":            summary,
		"per_user_daily_cap": festival.PerUserDailyCap,
		"per_photo_point":    festival.PerPhotoPoint,
	})
}
