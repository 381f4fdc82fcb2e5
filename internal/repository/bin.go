package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"festival-cleanup-backend/internal/models"
)

// BinRepository handles database operations for trash bins
type BinRepository struct {
	db *pgxpool.Pool
}

// NewBinRepository creates a new bin repository
func NewBinRepository(db *pgxpool.Pool) *BinRepository {
	return &BinRepository{db: db}
}

// CreateBatch inserts a batch of bins
func (r *BinRepository) CreateBatch(ctx context.Context, bins []*models.TrashBin) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO trash_bins (id, festival_id, code, name, description, latitude, longitude, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, bin := range bins {
		batch.Queue(query,
			bin.ID, bin.FestivalID, bin.Code, bin.Name, bin.Description,
			bin.Latitude, bin.Longitude, bin.CreatedAt,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range bins {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to create bin: %w", err)
		}
	}
	return nil
}

// GetByCode retrieves a bin by its canonical code within a festival
func (r *BinRepository) GetByCode(ctx context.Context, festivalID, code string) (*models.TrashBin, error) {
	query := `
		SELECT id, festival_id, code, name, description, latitude, longitude, created_at
		FROM trash_bins
		WHERE festival_id = $1 AND code = $2
	`
	var bin models.TrashBin
	err := r.db.QueryRow(ctx, query, festivalID, code).Scan(
		&bin.ID, &bin.FestivalID, &bin.Code, &bin.Name, &bin.Description,
		&bin.Latitude, &bin.Longitude, &bin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bin %s: %w", code, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bin: %w", err)
	}
	return &bin, nil
}

// ListByFestival retrieves all bins for a festival, ordered by code
func (r *BinRepository) ListByFestival(ctx context.Context, festivalID string) ([]*models.TrashBin, error) {
	query := `
		SELECT id, festival_id, code, name, description, latitude, longitude, created_at
		FROM trash_bins
		WHERE festival_id = $1
		ORDER BY code ASC
	`
	rows, err := r.db.Query(ctx, query, festivalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bins: %w", err)
	}
	defer rows.Close()

	var bins []*models.TrashBin
	for rows.Next() {
		var bin models.TrashBin
		err := rows.Scan(
			&bin.ID, &bin.FestivalID, &bin.Code, &bin.Name, &bin.Description,
			&bin.Latitude, &bin.Longitude, &bin.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bin: %w", err)
		}
		bins = append(bins, &bin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bins: %w", err)
	}

	return bins, nil
}

// CountByFestival counts the bins already placed at a festival
func (r *BinRepository) CountByFestival(ctx context.Context, festivalID string) (int, error) {
	query := `SELECT COUNT(*) FROM trash_bins WHERE festival_id = $1`
	var count int
	if err := r.db.QueryRow(ctx, query, festivalID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bins: %w", err)
	}
	return count, nil
}
