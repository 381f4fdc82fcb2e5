package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"festival-cleanup-backend/internal/models"
)

// SQLSTATEs under which Postgres aborts one of two conflicting transactions;
// the ledger retries once on either.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// LedgerRepository executes the photo verification transition as a single
// transaction. The festival row and the (user, festival, date) summary row are
// locked FOR UPDATE, in that order, so two concurrent submissions for the same
// user and day evaluate their caps against committed state, never a stale
// snapshot. Coupon issuance locks the festival row first too; every writer
// taking both locks in the same order keeps the two paths deadlock-free.
type LedgerRepository struct {
	db *pgxpool.Pool
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ApplyVerification evaluates decide against the locked ledger view and
// applies the verdict atomically: photo status/points and summary increment
// commit together or not at all. Retries once when Postgres aborts the
// transaction in a lock conflict.
func (r *LedgerRepository) ApplyVerification(
	ctx context.Context,
	photoID, userID, festivalID, date string,
	decide func(models.LedgerView) models.Verdict,
) (models.Verdict, error) {
	verdict, err := r.applyOnce(ctx, photoID, userID, festivalID, date, decide)
	if err != nil && isRetryableTxError(err) {
		verdict, err = r.applyOnce(ctx, photoID, userID, festivalID, date, decide)
	}
	return verdict, err
}

func (r *LedgerRepository) applyOnce(
	ctx context.Context,
	photoID, userID, festivalID, date string,
	decide func(models.LedgerView) models.Verdict,
) (models.Verdict, error) {
	var verdict models.Verdict

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return verdict, fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The festival row lock comes first and serializes the budget check across
	// users; coupon issuance takes its locks in the same order.
	var budget int
	if err := tx.QueryRow(ctx, `SELECT budget FROM festivals WHERE id = $1 FOR UPDATE`, festivalID).Scan(&budget); err != nil {
		return verdict, fmt.Errorf("failed to lock festival: %w", err)
	}

	ensure := `
		INSERT INTO user_daily_summaries (id, user_id, festival_id, date, total_pending, total_active, total_consumed, created_at)
		VALUES ($1, $2, $3, $4, 0, 0, 0, $5)
		ON CONFLICT (user_id, festival_id, date) DO NOTHING
	`
	if _, err := tx.Exec(ctx, ensure, uuid.New().String(), userID, festivalID, date, time.Now().UTC()); err != nil {
		return verdict, fmt.Errorf("failed to ensure summary: %w", err)
	}

	var view models.LedgerView
	lockSummary := `
		SELECT id, user_id, festival_id, date, total_pending, total_active, total_consumed, created_at
		FROM user_daily_summaries
		WHERE user_id = $1 AND festival_id = $2 AND date = $3
		FOR UPDATE
	`
	err = tx.QueryRow(ctx, lockSummary, userID, festivalID, date).Scan(
		&view.Summary.ID, &view.Summary.UserID, &view.Summary.FestivalID, &view.Summary.Date,
		&view.Summary.TotalPending, &view.Summary.TotalActive, &view.Summary.TotalConsumed,
		&view.Summary.CreatedAt,
	)
	if err != nil {
		return verdict, fmt.Errorf("failed to lock summary: %w", err)
	}

	spent := `
		SELECT COALESCE(SUM(points), 0)
		FROM trash_photos
		WHERE festival_id = $1 AND status IN ('ACTIVE', 'CONSUMED')
	`
	if err := tx.QueryRow(ctx, spent, festivalID).Scan(&view.FestivalSpent); err != nil {
		return verdict, fmt.Errorf("failed to sum festival spend: %w", err)
	}

	verdict = decide(view)

	if verdict.Status != models.PhotoPending {
		var reason *string
		if verdict.Reason != "" {
			reason = &verdict.Reason
		}
		update := `UPDATE trash_photos SET status = $1, points = $2, reject_reason = $3 WHERE id = $4`
		if _, err := tx.Exec(ctx, update, verdict.Status, verdict.Points, reason, photoID); err != nil {
			return verdict, fmt.Errorf("failed to update photo: %w", err)
		}
	}

	if verdict.Status == models.PhotoActive {
		bump := `UPDATE user_daily_summaries SET total_active = total_active + $1 WHERE id = $2`
		if _, err := tx.Exec(ctx, bump, verdict.Points, view.Summary.ID); err != nil {
			return verdict, fmt.Errorf("failed to update summary: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return verdict, fmt.Errorf("failed to commit ledger transaction: %w", err)
	}
	return verdict, nil
}

// isRetryableTxError reports whether err is a Postgres transaction abort the
// caller should retry: a serialization failure or a deadlock the server broke.
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}
