package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"festival-cleanup-backend/internal/middleware"
	"festival-cleanup-backend/internal/services"
)

// CouponHandler handles coupon HTTP requests
type CouponHandler struct {
	couponService *services.CouponService
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(couponService *services.CouponService) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
	}
}

// IssueRequest represents a coupon issuance request
type IssueRequest struct {
	ShopName string `json:"shop_name"`
	Amount   int    `json:"amount"`
}

// Issue handles POST /api/v1/festivals/{id}/coupons
func (h *CouponHandler) Issue(w http.ResponseWriter, r *http.Request) {
	festivalID := chi.URLParam(r, "id")
	userID := middleware.GetUserID(r.Context())

	var req IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		respondError(w, "amount must be positive", http.StatusBadRequest)
		return
	}
	if req.ShopName == "" {
		respondError(w, "shop_name is required", http.StatusBadRequest)
		return
	}

	coupon, err := h.couponService.IssueCoupon(r.Context(), userID, festivalID, req.ShopName, req.Amount)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("user_id", userID).
				Str("festival_id", festivalID).
				Int("amount", req.Amount).
				Msg("Failed to issue coupon")
			respondError(w, "Failed to issue coupon", status)
			return
		}
		respondError(w, err.Error(), status)
		return
	}

	respondJSON(w, http.StatusOK, coupon)
}

// MyCoupons handles GET /api/v1/festivals/{id}/me/coupons
func (h *CouponHandler) MyCoupons(w http.ResponseWriter, r *http.Request) {
	festivalID := chi.URLParam(r, "id")
	userID := middleware.GetUserID(r.Context())

	coupons, err := h.couponService.ListCoupons(r.Context(), userID, festivalID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("festival_id", festivalID).
			Msg("Failed to list coupons")
		respondError(w, "Failed to list coupons", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"coupons": coupons})
}

// QR handles GET /api/v1/coupons/{code}/qr
func (h *CouponHandler) QR(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	userID := middleware.GetUserID(r.Context())

	png, err := h.couponService.CouponQR(r.Context(), userID, code)
	if err != nil {
		respondError(w, "Coupon not found", statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
