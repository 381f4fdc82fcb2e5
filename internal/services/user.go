package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"festival-cleanup-backend/internal/models"
	"festival-cleanup-backend/internal/repository"
)

const (
	jwtExpDays   = 365
	mockProvider = "mock"
)

// UserService handles identity federation and token issuance
type UserService struct {
	userRepo  *repository.UserRepository
	jwtSecret string
}

// NewUserService creates a new user service
func NewUserService(userRepo *repository.UserRepository, jwtSecret string) *UserService {
	return &UserService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
	}
}

// Login resolves a federated identity to a user, creating it on first login,
// and returns the user with a fresh token. An empty provider falls back to the
// mock provider with a generated provider user id, matching the onboarding
// flow where the client only supplies a nickname.
func (s *UserService) Login(ctx context.Context, provider, providerUserID, displayName string) (*models.User, string, error) {
	if displayName == "" {
		return nil, "", fmt.Errorf("display name is required")
	}
	if provider == "" {
		provider = mockProvider
	}
	if providerUserID == "" {
		providerUserID = uuid.New().String()
	}

	user, err := s.userRepo.GetByProvider(ctx, provider, providerUserID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, "", fmt.Errorf("failed to look up user: %w", err)
		}
		user = &models.User{
			ID:             uuid.New().String(),
			Provider:       provider,
			ProviderUserID: providerUserID,
			DisplayName:    displayName,
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, "", fmt.Errorf("failed to create user: %w", err)
		}
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}
