package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"festival-cleanup-backend/internal/models"
)

// FeedEvent is one activity feed message
type FeedEvent struct {
	Type       string      `json:"type"`
	FestivalID string      `json:"festival_id"`
	Timestamp  int64       `json:"timestamp"`
	Data       interface{} `json:"data,omitempty"`
}

// FeedHub fans festival activity out to WebSocket subscribers, one
// subscription set per festival. Used by the operator dashboard to watch
// verifications and coupon issuance live.
type FeedHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*websocket.Conn]struct{}
}

// NewFeedHub creates a new feed hub
func NewFeedHub() *FeedHub {
	return &FeedHub{
		subscribers: make(map[string]map[*websocket.Conn]struct{}),
	}
}

// Register subscribes a connection to a festival's activity feed
func (h *FeedHub) Register(festivalID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[festivalID] == nil {
		h.subscribers[festivalID] = make(map[*websocket.Conn]struct{})
	}
	h.subscribers[festivalID][conn] = struct{}{}

	log.Info().Str("festival_id", festivalID).Msg("Feed subscriber registered")
}

// Unregister removes a connection from a festival's feed
func (h *FeedHub) Unregister(festivalID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.subscribers[festivalID]; ok {
		if _, subscribed := conns[conn]; subscribed {
			conn.Close()
			delete(conns, conn)
			log.Info().Str("festival_id", festivalID).Msg("Feed subscriber unregistered")
		}
		if len(conns) == 0 {
			delete(h.subscribers, festivalID)
		}
	}
}

// BroadcastPhoto announces a processed photo submission
func (h *FeedHub) BroadcastPhoto(festivalID string, photo *models.TrashPhoto) {
	h.broadcast(festivalID, FeedEvent{
		Type:       "photo_verified",
		FestivalID: festivalID,
		Timestamp:  time.Now().UnixMilli(),
		Data:       photo,
	})
}

// BroadcastCoupon announces an issued coupon
func (h *FeedHub) BroadcastCoupon(festivalID string, coupon *models.Coupon) {
	h.broadcast(festivalID, FeedEvent{
		Type:       "coupon_issued",
		FestivalID: festivalID,
		Timestamp:  time.Now().UnixMilli(),
		Data:       coupon,
	})
}

func (h *FeedHub) broadcast(festivalID string, event FeedEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal feed event")
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subscribers[festivalID]))
	for conn := range h.subscribers[festivalID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Str("festival_id", festivalID).Msg("Dropping unreachable feed subscriber")
			h.Unregister(festivalID, conn)
		}
	}
}
