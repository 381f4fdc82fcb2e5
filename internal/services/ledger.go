package services

import (
	"context"
	"fmt"
	"time"

	"festival-cleanup-backend/internal/config"
	"festival-cleanup-backend/internal/detection"
	"festival-cleanup-backend/internal/models"
)

// LedgerStore is the serialization point for the verification transition.
// Implementations must evaluate decide against committed state under a
// per-(user, festival, date) lock and apply the verdict atomically.
type LedgerStore interface {
	ApplyVerification(ctx context.Context, photoID, userID, festivalID, date string,
		decide func(models.LedgerView) models.Verdict) (models.Verdict, error)
}

// LedgerService advances a photo through the verification state machine and
// keeps the daily summary and festival budget consistent.
type LedgerService struct {
	store   LedgerStore
	rewards config.RewardsConfig
}

// NewLedgerService creates a new ledger service
func NewLedgerService(store LedgerStore, rewards config.RewardsConfig) *LedgerService {
	return &LedgerService{store: store, rewards: rewards}
}

// VerifyInput carries everything the transition needs besides the locked
// ledger view.
type VerifyInput struct {
	Photo            *models.TrashPhoto
	Festival         *models.Festival
	Date             string
	Duplicate        bool
	Detection        detection.Summary
	HasRecentBinScan bool
}

// Verify runs the PENDING -> ACTIVE/REJECTED transition. An unknown detection
// outcome leaves the photo PENDING for manual review and mutates nothing.
func (s *LedgerService) Verify(ctx context.Context, in VerifyInput) (models.Verdict, error) {
	verdict, err := s.store.ApplyVerification(ctx, in.Photo.ID, in.Photo.UserID, in.Photo.FestivalID, in.Date,
		func(view models.LedgerView) models.Verdict {
			return decide(in, view, s.rewards.RequireBinScan)
		})
	if err != nil {
		return verdict, fmt.Errorf("failed to apply verification: %w", err)
	}
	return verdict, nil
}

// decide is the pure verification rule. Rejections are normal outcomes with a
// reason code, never errors. No partial awards: a submission that would pass
// either cap only partially is rejected outright.
func decide(in VerifyInput, view models.LedgerView, requireBinScan bool) models.Verdict {
	if in.Duplicate {
		return models.Verdict{Status: models.PhotoRejected, Reason: models.RejectDuplicate}
	}
	if in.Detection.Unknown() {
		return models.Verdict{Status: models.PhotoPending}
	}
	if !*in.Detection.HasTrash {
		return models.Verdict{Status: models.PhotoRejected, Reason: models.RejectNoTrash}
	}
	if requireBinScan && !in.HasRecentBinScan {
		return models.Verdict{Status: models.PhotoRejected, Reason: models.RejectNoBinScan}
	}

	candidate := in.Festival.PerPhotoPoint
	if view.Summary.TotalActive+candidate > in.Festival.PerUserDailyCap {
		return models.Verdict{Status: models.PhotoRejected, Reason: models.RejectDailyCap}
	}
	if view.FestivalSpent+candidate > in.Festival.Budget {
		return models.Verdict{Status: models.PhotoRejected, Reason: models.RejectBudget}
	}

	return models.Verdict{Status: models.PhotoActive, Points: candidate}
}

// today returns the UTC calendar date used to shard daily summaries.
func today() string {
	return time.Now().UTC().Format("2006-01-02")
}
