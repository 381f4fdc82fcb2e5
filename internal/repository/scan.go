package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"festival-cleanup-backend/internal/models"
)

// ScanRepository handles database operations for bin scans. Scans are
// append-only and never mutated.
type ScanRepository struct {
	db *pgxpool.Pool
}

// NewScanRepository creates a new scan repository
func NewScanRepository(db *pgxpool.Pool) *ScanRepository {
	return &ScanRepository{db: db}
}

// Create appends a bin scan
func (r *ScanRepository) Create(ctx context.Context, scan *models.BinScan) error {
	query := `
		INSERT INTO bin_scans (id, festival_id, bin_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		scan.ID, scan.FestivalID, scan.BinID, scan.UserID, scan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bin scan: %w", err)
	}
	return nil
}

// HasRecent reports whether the user scanned any bin in the festival after
// the cutoff. Used by the corroboration policy hook.
func (r *ScanRepository) HasRecent(ctx context.Context, userID, festivalID string, cutoff time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bin_scans
			WHERE user_id = $1 AND festival_id = $2 AND created_at >= $3
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, festivalID, cutoff).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check recent scans: %w", err)
	}
	return exists, nil
}

// BinUsage is a per-bin scan count for the admin report
type BinUsage struct {
	BinID string `json:"bin_id"`
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// UsageByBin aggregates scan counts per bin for a festival
func (r *ScanRepository) UsageByBin(ctx context.Context, festivalID string) ([]BinUsage, error) {
	query := `
		SELECT s.bin_id, b.code, COUNT(*)
		FROM bin_scans s
		JOIN trash_bins b ON b.id = s.bin_id
		WHERE s.festival_id = $1
		GROUP BY s.bin_id, b.code
		ORDER BY b.code ASC
	`
	rows, err := r.db.Query(ctx, query, festivalID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate bin usage: %w", err)
	}
	defer rows.Close()

	var usage []BinUsage
	for rows.Next() {
		var u BinUsage
		if err := rows.Scan(&u.BinID, &u.Code, &u.Count); err != nil {
			return nil, fmt.Errorf("failed to scan bin usage: %w", err)
		}
		usage = append(usage, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bin usage: %w", err)
	}

	return usage, nil
}
