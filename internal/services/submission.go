package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"festival-cleanup-backend/internal/config"
	"festival-cleanup-backend/internal/detection"
	"festival-cleanup-backend/internal/fingerprint"
	"festival-cleanup-backend/internal/models"
)

// PhotoStore is the submission service's view of photo persistence
type PhotoStore interface {
	Create(ctx context.Context, photo *models.TrashPhoto) error
	RecentHashes(ctx context.Context, userID, festivalID string, limit int) ([]string, error)
	CountSince(ctx context.Context, userID string, cutoff time.Time) (int, error)
	ListByUser(ctx context.Context, userID, festivalID string) ([]*models.TrashPhoto, error)
}

// FestivalGetter resolves festivals by id
type FestivalGetter interface {
	GetByID(ctx context.Context, id string) (*models.Festival, error)
}

// ScanChecker answers the bin-scan corroboration query
type ScanChecker interface {
	HasRecent(ctx context.Context, userID, festivalID string, cutoff time.Time) (bool, error)
}

// Analyzer produces a detection summary for an image path
type Analyzer interface {
	Analyze(ctx context.Context, imagePath string) detection.Summary
}

// BlobSaver persists the submitted image and returns the inference-readable
// local path plus the recorded public URL
type BlobSaver interface {
	Save(ctx context.Context, festivalID, filename string, r io.Reader) (localPath, publicURL string, err error)
}

// Broadcaster pushes activity events to feed subscribers
type Broadcaster interface {
	BroadcastPhoto(festivalID string, photo *models.TrashPhoto)
}

// SubmissionService runs the photo submission pipeline: store the blob,
// fingerprint it, obtain a detection summary and hand the transition to the
// ledger.
type SubmissionService struct {
	photos    PhotoStore
	festivals FestivalGetter
	scans     ScanChecker
	ledger    *LedgerService
	router    Analyzer
	storage   BlobSaver
	feed      Broadcaster
	rewards   config.RewardsConfig
}

// NewSubmissionService creates a new submission service. feed may be nil.
func NewSubmissionService(
	photos PhotoStore,
	festivals FestivalGetter,
	scans ScanChecker,
	ledger *LedgerService,
	router Analyzer,
	storage BlobSaver,
	feed Broadcaster,
	rewards config.RewardsConfig,
) *SubmissionService {
	return &SubmissionService{
		photos:    photos,
		festivals: festivals,
		scans:     scans,
		ledger:    ledger,
		router:    router,
		storage:   storage,
		feed:      feed,
		rewards:   rewards,
	}
}

// SubmissionResult is the outcome of one submission
type SubmissionResult struct {
	Photo   *models.TrashPhoto `json:"photo"`
	Verdict models.Verdict     `json:"-"`
}

// Submit processes one photo submission end to end
func (s *SubmissionService) Submit(ctx context.Context, userID, festivalID string, image io.Reader, filename string, lat, lng *float64) (*SubmissionResult, error) {
	festival, err := s.festivals.GetByID(ctx, festivalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load festival: %w", err)
	}

	if !insideFestival(festival, lat, lng) {
		return nil, models.ErrOutsideFestival
	}

	count, err := s.photos.CountSince(ctx, userID, time.Now().Add(-time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if count >= s.rewards.RateLimitPerMinute {
		return nil, models.ErrRateLimited
	}

	data, err := io.ReadAll(image)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	localPath, publicURL, err := s.storage.Save(ctx, festivalID, filename, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	hash, duplicate := s.checkDuplicate(ctx, userID, festivalID, data)

	summary := s.router.Analyze(ctx, localPath)

	photo := &models.TrashPhoto{
		ID:            uuid.New().String(),
		UserID:        userID,
		FestivalID:    festivalID,
		ImageURL:      publicURL,
		Hash:          hash,
		Status:        models.PhotoPending,
		HasTrash:      summary.HasTrash,
		TrashCount:    summary.TrashCount,
		MaxConfidence: summary.MaxConfidence,
		Source:        summary.Source,
		CreatedAt:     time.Now().UTC(),
	}
	if summary.RawDetections != nil {
		raw, err := json.Marshal(summary.RawDetections)
		if err == nil {
			photo.DetectionRaw = raw
		}
	}

	if err := s.photos.Create(ctx, photo); err != nil {
		return nil, fmt.Errorf("failed to create photo: %w", err)
	}

	hasRecentScan := false
	if s.rewards.RequireBinScan {
		hasRecentScan, err = s.scans.HasRecent(ctx, userID, festivalID, time.Now().Add(-s.rewards.BinScanWindow()))
		if err != nil {
			return nil, fmt.Errorf("failed to check bin scans: %w", err)
		}
	}

	verdict, err := s.ledger.Verify(ctx, VerifyInput{
		Photo:            photo,
		Festival:         festival,
		Date:             today(),
		Duplicate:        duplicate,
		Detection:        summary,
		HasRecentBinScan: hasRecentScan,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify photo: %w", err)
	}

	photo.Status = verdict.Status
	photo.Points = verdict.Points
	if verdict.Reason != "" {
		reason := verdict.Reason
		photo.RejectReason = &reason
	}

	log.Info().
		Str("photo_id", photo.ID).
		Str("user_id", userID).
		Str("festival_id", festivalID).
		Str("status", string(verdict.Status)).
		Str("reason", verdict.Reason).
		Int("points", verdict.Points).
		Str("detection_source", summary.Source).
		Msg("Photo submission processed")

	if s.feed != nil {
		s.feed.BroadcastPhoto(festivalID, photo)
	}

	return &SubmissionResult{Photo: photo, Verdict: verdict}, nil
}

// ListPhotos retrieves a user's submissions for a festival, newest first
func (s *SubmissionService) ListPhotos(ctx context.Context, userID, festivalID string) ([]*models.TrashPhoto, error) {
	return s.photos.ListByUser(ctx, userID, festivalID)
}

// checkDuplicate fingerprints the image and compares it against the user's
// recent submissions in the festival. A failed fingerprint never blocks the
// submission; it degrades to "not a duplicate" with a logged warning.
func (s *SubmissionService) checkDuplicate(ctx context.Context, userID, festivalID string, data []byte) (string, bool) {
	fp, err := fingerprint.Compute(bytes.NewReader(data))
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Fingerprint unavailable, treating submission as non-duplicate")
		return "", false
	}

	hashes, err := s.photos.RecentHashes(ctx, userID, festivalID, s.rewards.DuplicateLookback)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load recent fingerprints, treating submission as non-duplicate")
		return fp.String(), false
	}

	for _, stored := range hashes {
		prev, err := fingerprint.Parse(stored)
		if err != nil {
			log.Warn().Err(err).Str("hash", stored).Msg("Skipping malformed stored fingerprint")
			continue
		}
		if fingerprint.Distance(fp, prev) <= s.rewards.DuplicateThreshold {
			return fp.String(), true
		}
	}
	return fp.String(), false
}
