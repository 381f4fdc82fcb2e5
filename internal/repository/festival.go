package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"festival-cleanup-backend/internal/models"
)

// FestivalRepository handles database operations for festivals
type FestivalRepository struct {
	db *pgxpool.Pool
}

// NewFestivalRepository creates a new festival repository
func NewFestivalRepository(db *pgxpool.Pool) *FestivalRepository {
	return &FestivalRepository{db: db}
}

// Create creates a new festival
func (r *FestivalRepository) Create(ctx context.Context, festival *models.Festival) error {
	query := `
		INSERT INTO festivals (id, name, budget, per_user_daily_cap, per_photo_point,
			center_lat, center_lng, radius_meters, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		festival.ID, festival.Name, festival.Budget, festival.PerUserDailyCap,
		festival.PerPhotoPoint, festival.CenterLat, festival.CenterLng,
		festival.RadiusMeters, festival.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create festival: %w", err)
	}
	return nil
}

// GetByID retrieves a festival by ID
func (r *FestivalRepository) GetByID(ctx context.Context, id string) (*models.Festival, error) {
	query := `
		SELECT id, name, budget, per_user_daily_cap, per_photo_point,
			center_lat, center_lng, radius_meters, created_at
		FROM festivals
		WHERE id = $1
	`
	var festival models.Festival
	err := r.db.QueryRow(ctx, query, id).Scan(
		&festival.ID, &festival.Name, &festival.Budget, &festival.PerUserDailyCap,
		&festival.PerPhotoPoint, &festival.CenterLat, &festival.CenterLng,
		&festival.RadiusMeters, &festival.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("festival %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get festival: %w", err)
	}
	return &festival, nil
}

// List retrieves all festivals, newest first
func (r *FestivalRepository) List(ctx context.Context) ([]*models.Festival, error) {
	query := `
		SELECT id, name, budget, per_user_daily_cap, per_photo_point,
			center_lat, center_lng, radius_meters, created_at
		FROM festivals
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list festivals: %w", err)
	}
	defer rows.Close()

	var festivals []*models.Festival
	for rows.Next() {
		var festival models.Festival
		err := rows.Scan(
			&festival.ID, &festival.Name, &festival.Budget, &festival.PerUserDailyCap,
			&festival.PerPhotoPoint, &festival.CenterLat, &festival.CenterLng,
			&festival.RadiusMeters, &festival.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan festival: %w", err)
		}
		festivals = append(festivals, &festival)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating festivals: %w", err)
	}

	return festivals, nil
}
