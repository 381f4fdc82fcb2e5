package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"festival-cleanup-backend/internal/models"
)

const photoColumns = `id, user_id, festival_id, image_url, hash, status, points,
	reject_reason, has_trash, trash_count, max_trash_confidence,
	detection_raw, detection_source, created_at`

// PhotoRepository handles database operations for trash photos
type PhotoRepository struct {
	db *pgxpool.Pool
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// Create creates a new trash photo
func (r *PhotoRepository) Create(ctx context.Context, photo *models.TrashPhoto) error {
	query := `
		INSERT INTO trash_photos (` + photoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.Exec(ctx, query,
		photo.ID, photo.UserID, photo.FestivalID, photo.ImageURL, photo.Hash,
		photo.Status, photo.Points, photo.RejectReason, photo.HasTrash,
		photo.TrashCount, photo.MaxConfidence, photo.DetectionRaw,
		photo.Source, photo.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// GetByID retrieves a photo by ID
func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*models.TrashPhoto, error) {
	query := `SELECT ` + photoColumns + ` FROM trash_photos WHERE id = $1`
	photo, err := scanPhoto(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("photo %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return photo, nil
}

// ListByUser retrieves a user's photos for a festival, newest first
func (r *PhotoRepository) ListByUser(ctx context.Context, userID, festivalID string) ([]*models.TrashPhoto, error) {
	query := `
		SELECT ` + photoColumns + `
		FROM trash_photos
		WHERE user_id = $1 AND festival_id = $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID, festivalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []*models.TrashPhoto
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}

	return photos, nil
}

// RecentHashes returns the fingerprints of the user's most recent photos in a
// festival, newest first, for duplicate detection.
func (r *PhotoRepository) RecentHashes(ctx context.Context, userID, festivalID string, limit int) ([]string, error) {
	query := `
		SELECT hash
		FROM trash_photos
		WHERE user_id = $1 AND festival_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, userID, festivalID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent hashes: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan hash: %w", err)
		}
		hashes = append(hashes, hash)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hashes: %w", err)
	}

	return hashes, nil
}

// CountSince counts the user's submissions after the cutoff, across festivals.
// Used for submission rate limiting.
func (r *PhotoRepository) CountSince(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM trash_photos WHERE user_id = $1 AND created_at >= $2`
	var count int
	if err := r.db.QueryRow(ctx, query, userID, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recent photos: %w", err)
	}
	return count, nil
}

// PointsByStatus sums photo points per status for a festival
func (r *PhotoRepository) PointsByStatus(ctx context.Context, festivalID string) (map[models.PhotoStatus]int, error) {
	query := `
		SELECT status, COALESCE(SUM(points), 0)
		FROM trash_photos
		WHERE festival_id = $1
		GROUP BY status
	`
	rows, err := r.db.Query(ctx, query, festivalID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum points by status: %w", err)
	}
	defer rows.Close()

	totals := make(map[models.PhotoStatus]int)
	for rows.Next() {
		var status models.PhotoStatus
		var points int
		if err := rows.Scan(&status, &points); err != nil {
			return nil, fmt.Errorf("failed to scan status total: %w", err)
		}
		totals[status] = points
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status totals: %w", err)
	}

	return totals, nil
}

// CountParticipants counts distinct users who submitted photos to a festival
func (r *PhotoRepository) CountParticipants(ctx context.Context, festivalID string) (int, error) {
	query := `SELECT COUNT(DISTINCT user_id) FROM trash_photos WHERE festival_id = $1`
	var count int
	if err := r.db.QueryRow(ctx, query, festivalID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (*models.TrashPhoto, error) {
	var photo models.TrashPhoto
	err := row.Scan(
		&photo.ID, &photo.UserID, &photo.FestivalID, &photo.ImageURL, &photo.Hash,
		&photo.Status, &photo.Points, &photo.RejectReason, &photo.HasTrash,
		&photo.TrashCount, &photo.MaxConfidence, &photo.DetectionRaw,
		&photo.Source, &photo.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &photo, nil
}
