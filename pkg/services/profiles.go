package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/apperrors"
	"github.com/menuguard/menuguard-engine/pkg/models"
	"github.com/menuguard/menuguard-engine/pkg/repositories"
)

// ProfileService manages diner profiles and the Pro tier.
type ProfileService interface {
	// Get returns the caller's profile, creating a default row when the
	// account predates the profiles table or the row was removed.
	Get(ctx context.Context, userID uuid.UUID, email string) (*models.Profile, error)

	// Update applies non-nil fields of the update.
	Update(ctx context.Context, userID uuid.UUID, update *models.ProfileUpdate) (*models.Profile, error)

	// Upgrade moves the profile to the Pro tier and removes the monthly
	// analysis cap. Idempotent.
	Upgrade(ctx context.Context, userID uuid.UUID) (*models.Profile, error)

	// EffectivePreferences returns the preferences the analysis pipeline
	// may use. Preference personalization is a Pro feature; for free-tier
	// profiles this is always empty.
	EffectivePreferences(p *models.Profile) string
}

type profileService struct {
	repo                repositories.ProfileRepository
	defaultMonthlyQuota int
	logger              *zap.Logger
}

// Compile-time check that profileService implements ProfileService
var _ ProfileService = (*profileService)(nil)

// NewProfileService creates a ProfileService.
func NewProfileService(repo repositories.ProfileRepository, defaultMonthlyQuota int, logger *zap.Logger) *profileService {
	return &profileService{
		repo:                repo,
		defaultMonthlyQuota: defaultMonthlyQuota,
		logger:              logger.Named("profiles"),
	}
}

// Get returns the caller's profile, creating a default row when absent.
func (s *profileService) Get(ctx context.Context, userID uuid.UUID, email string) (*models.Profile, error) {
	profile, err := s.repo.GetByID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	quota := s.defaultMonthlyQuota
	s.logger.Info("creating missing profile on read", zap.String("user_id", userID.String()))
	return s.repo.GetOrCreate(ctx, &models.Profile{
		Email:               email,
		MaxAnalysesPerMonth: &quota,
	})
}

// Update applies non-nil fields of the update.
func (s *profileService) Update(ctx context.Context, userID uuid.UUID, update *models.ProfileUpdate) (*models.Profile, error) {
	return s.repo.Update(ctx, userID, update)
}

// Upgrade moves the profile to the Pro tier.
func (s *profileService) Upgrade(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.repo.SetPro(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("profile upgraded to pro", zap.String("user_id", userID.String()))
	return profile, nil
}

// EffectivePreferences returns preferences only for Pro profiles.
func (s *profileService) EffectivePreferences(p *models.Profile) string {
	if p == nil || !p.IsPro {
		return ""
	}
	return p.Preferences
}
