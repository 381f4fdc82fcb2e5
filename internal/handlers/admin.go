package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"festival-cleanup-backend/internal/models"
	"festival-cleanup-backend/internal/services"
)

// AdminHandler handles operator HTTP requests
type AdminHandler struct {
	festivalService *services.FestivalService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(festivalService *services.FestivalService) *AdminHandler {
	return &AdminHandler{
		festivalService: festivalService,
	}
}

// CreateFestivalRequest represents a festival creation request
type CreateFestivalRequest struct {
	Name            string   `json:"name"`
	Budget          int      `json:"budget"`
	PerUserDailyCap int      `json:"per_user_daily_cap"`
	PerPhotoPoint   int      `json:"per_photo_point"`
	CenterLat       *float64 `json:"center_lat,omitempty"`
	CenterLng       *float64 `json:"center_lng,omitempty"`
	RadiusMeters    *int     `json:"radius_meters,omitempty"`
}

// CreateFestival handles POST /api/v1/admin/festivals
func (h *AdminHandler) CreateFestival(w http.ResponseWriter, r *http.Request) {
	var req CreateFestivalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	festival := &models.Festival{
		Name:            req.Name,
		Budget:          req.Budget,
		PerUserDailyCap: req.PerUserDailyCap,
		PerPhotoPoint:   req.PerPhotoPoint,
		CenterLat:       req.CenterLat,
		CenterLng:       req.CenterLng,
		RadiusMeters:    req.RadiusMeters,
	}
	if err := h.festivalService.CreateFestival(r.Context(), festival); err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("Failed to create festival")
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusCreated, festival)
}

// GenerateBinsRequest represents a bin generation request
type GenerateBinsRequest struct {
	Count int `json:"count"`
}

// GenerateBins handles POST /api/v1/admin/festivals/{id}/bins
func (h *AdminHandler) GenerateBins(w http.ResponseWriter, r *http.Request) {
	festivalID := chi.URLParam(r, "id")

	var req GenerateBinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Count <= 0 || req.Count > 100 {
		respondError(w, "count must be between 1 and 100", http.StatusBadRequest)
		return
	}

	bins, err := h.festivalService.GenerateBins(r.Context(), festivalID, req.Count)
	if err != nil {
		log.Error().
			Err(err).
			Str("festival_id", festivalID).
			Int("count", req.Count).
			Msg("Failed to generate bins")
		respondError(w, "Failed to generate bins", statusForError(err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"bins": bins})
}

// Summary handles GET /api/v1/admin/festivals/{id}/summary
func (h *AdminHandler) Summary(w http.ResponseWriter, r *http.Request) {
	festivalID := chi.URLParam(r, "id")

	summary, err := h.festivalService.Summary(r.Context(), festivalID)
	if err != nil {
		log.Error().Err(err).Str("festival_id", festivalID).Msg("Failed to build festival summary")
		respondError(w, "Failed to build summary", statusForError(err))
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
