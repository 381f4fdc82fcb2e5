package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"festival-cleanup-backend/internal/middleware"
	"festival-cleanup-backend/internal/models"
	"festival-cleanup-backend/internal/services"
)

// BinHandler handles bin scan HTTP requests
type BinHandler struct {
	binScanService  *services.BinScanService
	festivalService *services.FestivalService
}

// NewBinHandler creates a new bin handler
func NewBinHandler(binScanService *services.BinScanService, festivalService *services.FestivalService) *BinHandler {
	return &BinHandler{
		binScanService:  binScanService,
		festivalService: festivalService,
	}
}

// ScanRequest represents a bin scan request
type ScanRequest struct {
	Code string   `json:"code"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

// ScanResponse represents a recorded bin scan
type ScanResponse struct {
	Scan *models.BinScan  `json:"scan"`
	Bin  *models.TrashBin `json:"bin"`
}

// Scan handles POST /api/v1/festivals/{id}/bins/scan
func (h *BinHandler) Scan(w http.ResponseWriter, r *http.Request) {
	festivalID := chi.URLParam(r, "id")
	userID := middleware.GetUserID(r.Context())

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		respondError(w, "code is required", http.StatusBadRequest)
		return
	}

	scan, bin, err := h.binScanService.RecordScan(r.Context(), userID, festivalID, req.Code, req.Lat, req.Lng)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("user_id", userID).
				Str("festival_id", festivalID).
				Msg("Failed to record bin scan")
			respondError(w, "Failed to record scan", status)
			return
		}
		respondError(w, err.Error(), status)
		return
	}

	respondJSON(w, http.StatusOK, ScanResponse{Scan: scan, Bin: bin})
}

// List handles GET /api/v1/festivals/{id}/bins
func (h *BinHandler) List(w http.ResponseWriter, r *http.Request) {
	festivalID := chi.URLParam(r, "id")

	bins, err := h.festivalService.ListBins(r.Context(), festivalID)
	if err != nil {
		log.Error().Err(err).Str("festival_id", festivalID).Msg("Failed to list bins")
		respondError(w, "Failed to list bins", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"bins": bins})
}
