package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"festival-cleanup-backend/internal/models"
)

var binCodePattern = regexp.MustCompile(`^(?:TRASHBIN)?([0-9]+)$`)

// NormalizeBinCode renders a free-form bin code into the canonical
// TRASH_BIN_NN form: case-insensitive, separator-insensitive, and accepting a
// bare numeric suffix. The number is zero-padded to two digits and grows as
// needed for three-digit bins.
func NormalizeBinCode(raw string) (string, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	cleaned = strings.NewReplacer("-", "", "_", "", " ", "").Replace(cleaned)

	match := binCodePattern.FindStringSubmatch(cleaned)
	if match == nil {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidBinCode, raw)
	}

	seq, err := strconv.Atoi(match[1])
	if err != nil {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidBinCode, raw)
	}
	return fmt.Sprintf("TRASH_BIN_%02d", seq), nil
}

// BinStore resolves bins by canonical code
type BinStore interface {
	GetByCode(ctx context.Context, festivalID, code string) (*models.TrashBin, error)
}

// ScanStore appends bin scans
type ScanStore interface {
	Create(ctx context.Context, scan *models.BinScan) error
}

// BinScanService records bin scans as a corroborating activity signal. Scans
// carry no points and no dedup; the ledger consumes them through its policy
// hook.
type BinScanService struct {
	bins      BinStore
	scans     ScanStore
	festivals FestivalGetter
}

// NewBinScanService creates a new bin scan service
func NewBinScanService(bins BinStore, scans ScanStore, festivals FestivalGetter) *BinScanService {
	return &BinScanService{bins: bins, scans: scans, festivals: festivals}
}

// RecordScan normalizes the scanned code, resolves the bin and appends the
// scan event.
func (s *BinScanService) RecordScan(ctx context.Context, userID, festivalID, rawCode string, lat, lng *float64) (*models.BinScan, *models.TrashBin, error) {
	festival, err := s.festivals.GetByID(ctx, festivalID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load festival: %w", err)
	}

	if !insideFestival(festival, lat, lng) {
		return nil, nil, models.ErrOutsideFestival
	}

	code, err := NormalizeBinCode(rawCode)
	if err != nil {
		return nil, nil, err
	}

	bin, err := s.bins.GetByCode(ctx, festivalID, code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve bin: %w", err)
	}

	scan := &models.BinScan{
		ID:         uuid.New().String(),
		FestivalID: festivalID,
		BinID:      bin.ID,
		UserID:     userID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.scans.Create(ctx, scan); err != nil {
		return nil, nil, fmt.Errorf("failed to record scan: %w", err)
	}

	log.Info().
		Str("user_id", userID).
		Str("festival_id", festivalID).
		Str("bin_code", bin.Code).
		Msg("Bin scan recorded")

	return scan, bin, nil
}
