package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"festival-cleanup-backend/internal/models"
)

const (
	couponCodeLength = 6
	couponCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	couponQRSize     = 256
)

// CouponStore persists coupon issuance and lookups
type CouponStore interface {
	Issue(ctx context.Context, coupon *models.Coupon, date string) error
	ListByUser(ctx context.Context, userID, festivalID string) ([]*models.Coupon, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// CouponBroadcaster pushes coupon events to feed subscribers
type CouponBroadcaster interface {
	BroadcastCoupon(festivalID string, coupon *models.Coupon)
}

// CouponService converts accumulated consumable points into coupons
type CouponService struct {
	coupons CouponStore
	feed    CouponBroadcaster
}

// NewCouponService creates a new coupon service. feed may be nil.
func NewCouponService(coupons CouponStore, feed CouponBroadcaster) *CouponService {
	return &CouponService{coupons: coupons, feed: feed}
}

// IssueCoupon issues a coupon against the user's consumable balance. The
// underlying store fails with models.ErrInsufficientPoints or
// models.ErrBudgetExhausted without touching the ledger.
func (s *CouponService) IssueCoupon(ctx context.Context, userID, festivalID, shopName string, amount int) (*models.Coupon, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("coupon amount must be positive, got %d", amount)
	}
	if shopName == "" {
		return nil, fmt.Errorf("shop name is required")
	}

	coupon := &models.Coupon{
		ID:         uuid.New().String(),
		UserID:     userID,
		FestivalID: festivalID,
		ShopName:   shopName,
		Amount:     amount,
		Code:       generateCouponCode(amount),
		Status:     models.CouponIssued,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.coupons.Issue(ctx, coupon, today()); err != nil {
		return nil, err
	}

	log.Info().
		Str("coupon_id", coupon.ID).
		Str("user_id", userID).
		Str("festival_id", festivalID).
		Str("shop", shopName).
		Int("amount", amount).
		Msg("Coupon issued")

	if s.feed != nil {
		s.feed.BroadcastCoupon(festivalID, coupon)
	}

	return coupon, nil
}

// ListCoupons retrieves a user's coupons for a festival
func (s *CouponService) ListCoupons(ctx context.Context, userID, festivalID string) ([]*models.Coupon, error) {
	return s.coupons.ListByUser(ctx, userID, festivalID)
}

// CouponQR renders a coupon code as a QR PNG for point-of-sale scanning. Only
// the coupon's owner may request it.
func (s *CouponService) CouponQR(ctx context.Context, userID, code string) ([]byte, error) {
	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon.UserID != userID {
		return nil, fmt.Errorf("coupon %s: %w", code, models.ErrNotFound)
	}

	png, err := qrcode.Encode(coupon.Code, qrcode.Medium, couponQRSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR: %w", err)
	}
	return png, nil
}

// generateCouponCode builds a unique, unguessable coupon code
func generateCouponCode(amount int) string {
	suffix := make([]byte, couponCodeLength)
	for i := range suffix {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(couponCodeChars))))
		suffix[i] = couponCodeChars[n.Int64()]
	}
	return fmt.Sprintf("FEST-%d-%s", amount, suffix)
}
