package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"festival-cleanup-backend/internal/models"
	"festival-cleanup-backend/internal/repository"
)

// FestivalService handles festival reads, the user summary view and the admin
// operations that set a festival up.
type FestivalService struct {
	festivals *repository.FestivalRepository
	bins      *repository.BinRepository
	photos    *repository.PhotoRepository
	scans     *repository.ScanRepository
	summaries *repository.SummaryRepository
}

// NewFestivalService creates a new festival service
func NewFestivalService(
	festivals *repository.FestivalRepository,
	bins *repository.BinRepository,
	photos *repository.PhotoRepository,
	scans *repository.ScanRepository,
	summaries *repository.SummaryRepository,
) *FestivalService {
	return &FestivalService{
		festivals: festivals,
		bins:      bins,
		photos:    photos,
		scans:     scans,
		summaries: summaries,
	}
}

// List retrieves all festivals
func (s *FestivalService) List(ctx context.Context) ([]*models.Festival, error) {
	return s.festivals.List(ctx)
}

// Get retrieves a festival with its bins
func (s *FestivalService) Get(ctx context.Context, id string) (*models.Festival, []*models.TrashBin, error) {
	festival, err := s.festivals.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	bins, err := s.bins.ListByFestival(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return festival, bins, nil
}

// ListBins retrieves the bins of a festival
func (s *FestivalService) ListBins(ctx context.Context, festivalID string) ([]*models.TrashBin, error) {
	return s.bins.ListByFestival(ctx, festivalID)
}

// UserSummary returns the festival and the user's daily summary for today,
// creating the summary row on first access.
func (s *FestivalService) UserSummary(ctx context.Context, userID, festivalID string) (*models.Festival, *models.UserDailySummary, error) {
	festival, err := s.festivals.GetByID(ctx, festivalID)
	if err != nil {
		return nil, nil, err
	}
	summary, err := s.summaries.Ensure(ctx, userID, festivalID, today())
	if err != nil {
		return nil, nil, err
	}
	return festival, summary, nil
}

// Shops returns the redeemable offers shown in the wallet
func (s *FestivalService) Shops(ctx context.Context, festivalID string) []models.Shop {
	return []models.Shop{
		{ShopName: "Festival Snacks", Amount: 2000, Description: "2,000 off purchases of 2,000 or more"},
		{ShopName: "Festival Cafe", Amount: 3000, Description: "3,000 off any drink order"},
		{ShopName: "Festival Market", Amount: 1500, Description: "1,500 off snack items"},
	}
}

// CreateFestival creates a new festival campaign
func (s *FestivalService) CreateFestival(ctx context.Context, festival *models.Festival) error {
	if festival.Name == "" {
		return fmt.Errorf("festival name is required")
	}
	if festival.Budget <= 0 || festival.PerUserDailyCap <= 0 || festival.PerPhotoPoint <= 0 {
		return fmt.Errorf("budget, daily cap and per-photo points must be positive")
	}

	festival.ID = uuid.New().String()
	festival.CreatedAt = time.Now().UTC()
	return s.festivals.Create(ctx, festival)
}

// GenerateBins creates count official bins with sequential canonical codes,
// continuing from the festival's existing bin count.
func (s *FestivalService) GenerateBins(ctx context.Context, festivalID string, count int) ([]*models.TrashBin, error) {
	if count <= 0 {
		return nil, fmt.Errorf("bin count must be positive, got %d", count)
	}
	if _, err := s.festivals.GetByID(ctx, festivalID); err != nil {
		return nil, err
	}

	existing, err := s.bins.CountByFestival(ctx, festivalID)
	if err != nil {
		return nil, err
	}

	bins := make([]*models.TrashBin, 0, count)
	for i := 0; i < count; i++ {
		seq := existing + i + 1
		description := "Placed by the festival operations team"
		bins = append(bins, &models.TrashBin{
			ID:          uuid.New().String(),
			FestivalID:  festivalID,
			Code:        fmt.Sprintf("TRASH_BIN_%02d", seq),
			Name:        fmt.Sprintf("Official bin #%d", seq),
			Description: &description,
			CreatedAt:   time.Now().UTC(),
		})
	}

	if err := s.bins.CreateBatch(ctx, bins); err != nil {
		return nil, err
	}
	return bins, nil
}

// AdminSummary is the festival-wide report for operators
type AdminSummary struct {
	Festival          *models.Festival      `json:"festival"`
	TotalParticipants int                   `json:"total_participants"`
	PointsByStatus    map[string]int        `json:"points_by_status"`
	RemainingBudget   int                   `json:"remaining_budget"`
	BinUsage          []repository.BinUsage `json:"bin_usage"`
}

// Summary builds the festival-wide admin report
func (s *FestivalService) Summary(ctx context.Context, festivalID string) (*AdminSummary, error) {
	festival, err := s.festivals.GetByID(ctx, festivalID)
	if err != nil {
		return nil, err
	}

	totals, err := s.photos.PointsByStatus(ctx, festivalID)
	if err != nil {
		return nil, err
	}
	participants, err := s.photos.CountParticipants(ctx, festivalID)
	if err != nil {
		return nil, err
	}
	usage, err := s.scans.UsageByBin(ctx, festivalID)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int, len(totals))
	spent := 0
	for status, points := range totals {
		byStatus[string(status)] = points
		if status == models.PhotoActive || status == models.PhotoConsumed {
			spent += points
		}
	}

	return &AdminSummary{
		Festival:          festival,
		TotalParticipants: participants,
		PointsByStatus:    byStatus,
		RemainingBudget:   festival.Budget - spent,
		BinUsage:          usage,
	}, nil
}
