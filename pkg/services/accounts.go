package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/apperrors"
	"github.com/menuguard/menuguard-engine/pkg/auth"
	"github.com/menuguard/menuguard-engine/pkg/models"
	"github.com/menuguard/menuguard-engine/pkg/repositories"
)

const resetTokenKeyPrefix = "pwreset:"

// AccountService handles signup, login, and password reset.
type AccountService interface {
	// Signup registers a new account. Returns apperrors.ErrConflict when
	// the email is already registered.
	Signup(ctx context.Context, email, username, password string) (*models.Profile, error)

	// Login verifies credentials. Returns apperrors.ErrInvalidCredentials
	// for an unknown email or a wrong password, without distinguishing.
	Login(ctx context.Context, email, password string) (*models.Profile, error)

	// RequestPasswordReset issues a single-use reset token for the email.
	// An unknown email returns no error and no token so the endpoint does
	// not reveal which addresses have accounts.
	RequestPasswordReset(ctx context.Context, email string) (string, error)

	// ResetPassword consumes a reset token and sets the new password.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type accountService struct {
	profiles            repositories.ProfileRepository
	redis               *redis.Client
	resetTokenTTL       time.Duration
	defaultMonthlyQuota int
	logger              *zap.Logger
}

// Compile-time check that accountService implements AccountService
var _ AccountService = (*accountService)(nil)

// NewAccountService creates an AccountService. A nil redis client disables
// password reset.
func NewAccountService(profiles repositories.ProfileRepository, redisClient *redis.Client, resetTokenTTL time.Duration, defaultMonthlyQuota int, logger *zap.Logger) *accountService {
	return &accountService{
		profiles:            profiles,
		redis:               redisClient,
		resetTokenTTL:       resetTokenTTL,
		defaultMonthlyQuota: defaultMonthlyQuota,
		logger:              logger.Named("accounts"),
	}
}

// Signup registers a new account.
func (s *accountService) Signup(ctx context.Context, email, username, password string) (*models.Profile, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", apperrors.ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	quota := s.defaultMonthlyQuota
	profile := &models.Profile{
		Email:               email,
		Username:            username,
		PasswordHash:        hash,
		MaxAnalysesPerMonth: &quota,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("account created", zap.String("user_id", profile.ID.String()))
	return profile, nil
}

// Login verifies credentials.
func (s *accountService) Login(ctx context.Context, email, password string) (*models.Profile, error) {
	profile, err := s.profiles.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(profile.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return profile, nil
}

// RequestPasswordReset issues a single-use reset token for the email.
func (s *accountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if s.redis == nil {
		return "", fmt.Errorf("password reset is not configured")
	}

	profile, err := s.profiles.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Same outward behavior as a known email.
			return "", nil
		}
		return "", err
	}

	token, err := newResetToken()
	if err != nil {
		return "", err
	}

	key := resetTokenKeyPrefix + token
	if err := s.redis.Set(ctx, key, profile.ID.String(), s.resetTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	s.logger.Info("password reset requested", zap.String("user_id", profile.ID.String()))
	return token, nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *accountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s.redis == nil {
		return fmt.Errorf("password reset is not configured")
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}

	key := resetTokenKeyPrefix + token
	userIDStr, err := s.redis.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.ErrInvalidResetToken
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return apperrors.ErrInvalidResetToken
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.profiles.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("password reset completed", zap.String("user_id", userID.String()))
	return nil
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
