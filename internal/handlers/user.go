package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"festival-cleanup-backend/internal/middleware"
	"festival-cleanup-backend/internal/models"
	"festival-cleanup-backend/internal/services"
)

// UserHandler handles authentication and profile HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Provider       string `json:"provider"`
	ProviderUserID string `json:"provider_user_id"`
	DisplayName    string `json:"display_name"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Login handles POST /api/v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.DisplayName == "" {
		respondError(w, "display_name is required", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.Login(r.Context(), req.Provider, req.ProviderUserID, req.DisplayName)
	if err != nil {
		log.Error().
			Err(err).
			Str("provider", req.Provider).
			Msg("Failed to log in user")
		respondError(w, "Failed to log in", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Str("provider", user.Provider).
		Msg("User logged in")

	respondJSON(w, http.StatusOK, LoginResponse{User: user, Token: token})
}

// Me handles GET /api/v1/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, "User not found", statusForError(err))
		return
	}

	respondJSON(w, http.StatusOK, user)
}
