package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"festival-cleanup-backend/internal/models"
)

// CouponRepository handles coupon issuance and lookups
type CouponRepository struct {
	db *pgxpool.Pool
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(db *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{db: db}
}

// Issue converts consumable points into a coupon in one transaction: the
// user's ACTIVE photos are locked oldest-first and marked CONSUMED until their
// points cover the amount, the daily summary moves the amount from active to
// consumed, and the coupon row is inserted. Fails with
// models.ErrInsufficientPoints or models.ErrBudgetExhausted leaving no
// partial state behind.
func (r *CouponRepository) Issue(ctx context.Context, coupon *models.Coupon, date string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin coupon transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var budget int
	if err := tx.QueryRow(ctx, `SELECT budget FROM festivals WHERE id = $1 FOR UPDATE`, coupon.FestivalID).Scan(&budget); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("festival %s: %w", coupon.FestivalID, models.ErrNotFound)
		}
		return fmt.Errorf("failed to lock festival: %w", err)
	}

	lockActive := `
		SELECT id, points
		FROM trash_photos
		WHERE user_id = $1 AND festival_id = $2 AND status = 'ACTIVE'
		ORDER BY created_at ASC
		FOR UPDATE
	`
	rows, err := tx.Query(ctx, lockActive, coupon.UserID, coupon.FestivalID)
	if err != nil {
		return fmt.Errorf("failed to lock active photos: %w", err)
	}

	var active []models.ConsumablePhoto
	balance := 0
	for rows.Next() {
		var p models.ConsumablePhoto
		if err := rows.Scan(&p.ID, &p.Points); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan active photo: %w", err)
		}
		active = append(active, p)
		balance += p.Points
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating active photos: %w", err)
	}

	if balance < coupon.Amount {
		return fmt.Errorf("balance %d, requested %d: %w", balance, coupon.Amount, models.ErrInsufficientPoints)
	}

	// Consistency guard: budget was already reserved when photos went ACTIVE,
	// so total issued coupon value can never legitimately pass the budget.
	var issued int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM coupons WHERE festival_id = $1`, coupon.FestivalID).Scan(&issued); err != nil {
		return fmt.Errorf("failed to sum issued coupons: %w", err)
	}
	if issued+coupon.Amount > budget {
		return fmt.Errorf("issued %d of %d: %w", issued, budget, models.ErrBudgetExhausted)
	}

	// Oldest accepted photos back the coupon.
	consumedIDs, _ := models.SelectForConsumption(active, coupon.Amount)
	if _, err := tx.Exec(ctx, `UPDATE trash_photos SET status = 'CONSUMED' WHERE id = ANY($1)`, consumedIDs); err != nil {
		return fmt.Errorf("failed to consume photos: %w", err)
	}

	ensure := `
		INSERT INTO user_daily_summaries (id, user_id, festival_id, date, total_pending, total_active, total_consumed, created_at)
		VALUES ($1, $2, $3, $4, 0, 0, 0, $5)
		ON CONFLICT (user_id, festival_id, date) DO NOTHING
	`
	if _, err := tx.Exec(ctx, ensure, uuid.New().String(), coupon.UserID, coupon.FestivalID, date, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to ensure summary: %w", err)
	}
	movePoints := `
		UPDATE user_daily_summaries
		SET total_active = total_active - $1, total_consumed = total_consumed + $1
		WHERE user_id = $2 AND festival_id = $3 AND date = $4
	`
	if _, err := tx.Exec(ctx, movePoints, coupon.Amount, coupon.UserID, coupon.FestivalID, date); err != nil {
		return fmt.Errorf("failed to update summary: %w", err)
	}

	insert := `
		INSERT INTO coupons (id, user_id, festival_id, shop_name, amount, code, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.Exec(ctx, insert,
		coupon.ID, coupon.UserID, coupon.FestivalID, coupon.ShopName,
		coupon.Amount, coupon.Code, coupon.Status, coupon.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit coupon transaction: %w", err)
	}
	return nil
}

// ListByUser retrieves a user's coupons for a festival, newest first
func (r *CouponRepository) ListByUser(ctx context.Context, userID, festivalID string) ([]*models.Coupon, error) {
	query := `
		SELECT id, user_id, festival_id, shop_name, amount, code, status, created_at
		FROM coupons
		WHERE user_id = $1 AND festival_id = $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID, festivalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []*models.Coupon
	for rows.Next() {
		var coupon models.Coupon
		err := rows.Scan(
			&coupon.ID, &coupon.UserID, &coupon.FestivalID, &coupon.ShopName,
			&coupon.Amount, &coupon.Code, &coupon.Status, &coupon.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, &coupon)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

// GetByCode retrieves a coupon by its unique code
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	query := `
		SELECT id, user_id, festival_id, shop_name, amount, code, status, created_at
		FROM coupons
		WHERE code = $1
	`
	var coupon models.Coupon
	err := r.db.QueryRow(ctx, query, code).Scan(
		&coupon.ID, &coupon.UserID, &coupon.FestivalID, &coupon.ShopName,
		&coupon.Amount, &coupon.Code, &coupon.Status, &coupon.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("coupon %s: %w", code, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return &coupon, nil
}
