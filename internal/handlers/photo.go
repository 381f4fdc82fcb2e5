package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"festival-cleanup-backend/internal/middleware"
	"festival-cleanup-backend/internal/services"
)

// maxUploadBytes caps the multipart form held in memory per submission
const maxUploadBytes = 10 << 20

// PhotoHandler handles photo submission HTTP requests
type PhotoHandler struct {
	submissionService *services.SubmissionService
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(submissionService *services.SubmissionService) *PhotoHandler {
	return &PhotoHandler{
		submissionService: submissionService,
	}
}

// Submit handles POST /api/v1/festivals/{id}/photos. The request is a
// multipart form with a "photo" file field and optional "lat"/"lng" fields.
// A rejected photo is still a 200: rejection is an outcome, not an error.
func (h *PhotoHandler) Submit(w http.ResponseWriter, r *http.Request) {
	festivalID := chi.URLParam(r, "id")
	userID := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		respondError(w, "photo file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	lat := parseCoord(r.FormValue("lat"))
	lng := parseCoord(r.FormValue("lng"))

	result, err := h.submissionService.Submit(r.Context(), userID, festivalID, file, header.Filename, lat, lng)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("user_id", userID).
				Str("festival_id", festivalID).
				Msg("Failed to process photo submission")
			respondError(w, "Failed to process submission", status)
			return
		}
		respondError(w, err.Error(), status)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// MyPhotos handles GET /api/v1/festivals/{id}/me/photos
func (h *PhotoHandler) MyPhotos(w http.ResponseWriter, r *http.Request) {
	festivalID := chi.URLParam(r, "id")
	userID := middleware.GetUserID(r.Context())

	photos, err := h.submissionService.ListPhotos(r.Context(), userID, festivalID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("festival_id", festivalID).
			Msg("Failed to list photos")
		respondError(w, "Failed to list photos", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"photos": photos})
}

// parseCoord parses an optional coordinate form value
func parseCoord(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
