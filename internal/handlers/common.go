package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"festival-cleanup-backend/internal/models"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// statusForError maps domain sentinel errors to HTTP status codes. Unmapped
// errors fall through to 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, models.ErrOutsideFestival),
		errors.Is(err, models.ErrInvalidBinCode),
		errors.Is(err, models.ErrInsufficientPoints),
		errors.Is(err, models.ErrBudgetExhausted):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
