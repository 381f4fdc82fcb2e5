package models

import "time"

// PhotoStatus is the lifecycle state of a trash photo submission
type PhotoStatus string

const (
	PhotoPending  PhotoStatus = "PENDING"
	PhotoActive   PhotoStatus = "ACTIVE"
	PhotoRejected PhotoStatus = "REJECTED"
	PhotoConsumed PhotoStatus = "CONSUMED"
)

// Rejection reason codes recorded when a photo transitions to REJECTED
const (
	RejectDuplicate = "duplicate"
	RejectNoTrash   = "no_trash"
	RejectDailyCap  = "daily_cap"
	RejectBudget    = "budget"
	RejectNoBinScan = "no_bin_scan"
)

// CouponStatus is the lifecycle state of an issued coupon
type CouponStatus string

const (
	CouponIssued CouponStatus = "ISSUED"
	CouponUsed   CouponStatus = "USED"
)

// User represents a participant, federated from an external identity provider
type User struct {
	ID             string    `json:"id"`
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"provider_user_id"`
	DisplayName    string    `json:"display_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// Festival represents a time-bounded clean-up campaign
type Festival struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Budget          int       `json:"budget"`
	PerUserDailyCap int       `json:"per_user_daily_cap"`
	PerPhotoPoint   int       `json:"per_photo_point"`
	CenterLat       *float64  `json:"center_lat,omitempty"`
	CenterLng       *float64  `json:"center_lng,omitempty"`
	RadiusMeters    *int      `json:"radius_meters,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// TrashPhoto represents one photo submission and its verification outcome.
// Detection and status fields are written exactly once by the pipeline.
type TrashPhoto struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	FestivalID    string      `json:"festival_id"`
	ImageURL      string      `json:"image_url"`
	Hash          string      `json:"hash"`
	Status        PhotoStatus `json:"status"`
	Points        int         `json:"points"`
	RejectReason  *string     `json:"reject_reason,omitempty"`
	HasTrash      *bool       `json:"has_trash,omitempty"`
	TrashCount    *int        `json:"trash_count,omitempty"`
	MaxConfidence *float64    `json:"max_trash_confidence,omitempty"`
	DetectionRaw  []byte      `json:"-"`
	Source        string      `json:"detection_source,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// TrashBin represents a physical bin placed at a festival
type TrashBin struct {
	ID          string    `json:"id"`
	FestivalID  string    `json:"festival_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BinScan represents a user's scan of a bin code; append-only
type BinScan struct {
	ID         string    `json:"id"`
	FestivalID string    `json:"festival_id"`
	BinID      string    `json:"bin_id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserDailySummary is the authoritative per-(user, festival, date) point
// accumulator used for daily-cap enforcement
type UserDailySummary struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	FestivalID    string    `json:"festival_id"`
	Date          string    `json:"date"`
	TotalPending  int       `json:"total_pending"`
	TotalActive   int       `json:"total_active"`
	TotalConsumed int       `json:"total_consumed"`
	CreatedAt     time.Time `json:"created_at"`
}

// Coupon represents an issued reward
type Coupon struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	FestivalID string       `json:"festival_id"`
	ShopName   string       `json:"shop_name"`
	Amount     int          `json:"amount"`
	Code       string       `json:"code"`
	Status     CouponStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Shop describes a redeemable offer shown in the wallet
type Shop struct {
	ShopName    string `json:"shop_name"`
	Amount      int    `json:"amount"`
	Description string `json:"description"`
}
