package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"festival-cleanup-backend/internal/middleware"
	"festival-cleanup-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// WebSocketHandler serves the live activity feed
type WebSocketHandler struct {
	hub         *services.FeedHub
	userService *services.UserService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.FeedHub, userService *services.UserService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		userService: userService,
	}
}

// HandleFeed handles GET /ws/feed?festival_id=...&token=... and streams
// accepted photo and coupon events for one festival.
func (h *WebSocketHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	festivalID := r.URL.Query().Get("festival_id")
	if festivalID == "" {
		respondError(w, "festival_id required", http.StatusBadRequest)
		return
	}

	userID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.userService)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.hub.Register(festivalID, conn)
	defer h.hub.Unregister(festivalID, conn)

	log.Info().
		Str("user_id", userID).
		Str("festival_id", festivalID).
		Msg("Feed subscriber connected")

	// The feed is one-way; the read loop only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	log.Info().
		Str("user_id", userID).
		Str("festival_id", festivalID).
		Msg("Feed subscriber disconnected")
}
