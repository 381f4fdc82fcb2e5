package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"festival-cleanup-backend/internal/models"
)

// SummaryRepository handles database operations for user daily summaries
type SummaryRepository struct {
	db *pgxpool.Pool
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *pgxpool.Pool) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// Ensure returns the summary row for (user, festival, date), creating it when
// missing. The unique constraint makes concurrent creation safe.
func (r *SummaryRepository) Ensure(ctx context.Context, userID, festivalID, date string) (*models.UserDailySummary, error) {
	insert := `
		INSERT INTO user_daily_summaries (id, user_id, festival_id, date, total_pending, total_active, total_consumed, created_at)
		VALUES ($1, $2, $3, $4, 0, 0, 0, $5)
		ON CONFLICT (user_id, festival_id, date) DO NOTHING
	`
	_, err := r.db.Exec(ctx, insert, uuid.New().String(), userID, festivalID, date, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to ensure summary: %w", err)
	}

	query := `
		SELECT id, user_id, festival_id, date, total_pending, total_active, total_consumed, created_at
		FROM user_daily_summaries
		WHERE user_id = $1 AND festival_id = $2 AND date = $3
	`
	var summary models.UserDailySummary
	err = r.db.QueryRow(ctx, query, userID, festivalID, date).Scan(
		&summary.ID, &summary.UserID, &summary.FestivalID, &summary.Date,
		&summary.TotalPending, &summary.TotalActive, &summary.TotalConsumed, &summary.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &summary, nil
}
