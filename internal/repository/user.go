package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"festival-cleanup-backend/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, provider, provider_user_id, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Provider, user.ProviderUserID, user.DisplayName, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, provider, provider_user_id, display_name, created_at
		FROM users
		WHERE id = $1
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Provider, &user.ProviderUserID, &user.DisplayName, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByProvider retrieves a user by its federated identity
func (r *UserRepository) GetByProvider(ctx context.Context, provider, providerUserID string) (*models.User, error) {
	query := `
		SELECT id, provider, provider_user_id, display_name, created_at
		FROM users
		WHERE provider = $1 AND provider_user_id = $2
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, provider, providerUserID).Scan(
		&user.ID, &user.Provider, &user.ProviderUserID, &user.DisplayName, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s/%s: %w", provider, providerUserID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by provider: %w", err)
	}
	return &user, nil
}
