package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/apperrors"
	"github.com/menuguard/menuguard-engine/pkg/models"
	"github.com/menuguard/menuguard-engine/pkg/repositories"
)

// defaultHistoryLimit caps a single history listing.
const defaultHistoryLimit = 50

// HistoryService manages persisted analysis history and the monthly quota.
type HistoryService interface {
	// CheckQuota returns apperrors.ErrQuotaExceeded when the profile has
	// used up its analyses for the current calendar month. Profiles with
	// no cap always pass.
	CheckQuota(ctx context.Context, profile *models.Profile) error

	// Record persists a completed analysis for the user.
	Record(ctx context.Context, userID uuid.UUID, analysisType, inputText string, results []models.AnalysisResultItem, allergies, preferences string) (*models.HistoryEntry, error)

	// List returns the user's entries, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]*models.HistoryEntry, error)

	// Delete removes one entry owned by the user.
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type historyService struct {
	repo   repositories.HistoryRepository
	logger *zap.Logger
}

// Compile-time check that historyService implements HistoryService
var _ HistoryService = (*historyService)(nil)

// NewHistoryService creates a HistoryService.
func NewHistoryService(repo repositories.HistoryRepository, logger *zap.Logger) *historyService {
	return &historyService{
		repo:   repo,
		logger: logger.Named("history"),
	}
}

// CheckQuota enforces the profile's monthly analysis cap.
func (s *historyService) CheckQuota(ctx context.Context, profile *models.Profile) error {
	if profile == nil || profile.MaxAnalysesPerMonth == nil {
		return nil
	}

	count, err := s.repo.CountForUserSince(ctx, profile.ID, startOfMonth(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to check quota: %w", err)
	}
	if count >= *profile.MaxAnalysesPerMonth {
		s.logger.Info("monthly quota reached",
			zap.String("user_id", profile.ID.String()),
			zap.Int("used", count),
			zap.Int("cap", *profile.MaxAnalysesPerMonth))
		return apperrors.ErrQuotaExceeded
	}
	return nil
}

// Record persists a completed analysis for the user.
func (s *historyService) Record(ctx context.Context, userID uuid.UUID, analysisType, inputText string, results []models.AnalysisResultItem, allergies, preferences string) (*models.HistoryEntry, error) {
	blob, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis result: %w", err)
	}

	entry := &models.HistoryEntry{
		UserID:       userID,
		Status:       models.HistoryStatusCompleted,
		AnalysisType: analysisType,
		InputText:    inputText,
		Result:       blob,
		Allergies:    allergies,
		Preferences:  preferences,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns the user's entries, newest first.
func (s *historyService) List(ctx context.Context, userID uuid.UUID) ([]*models.HistoryEntry, error) {
	return s.repo.ListByUser(ctx, userID, defaultHistoryLimit)
}

// Delete removes one entry owned by the user.
func (s *historyService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.DeleteByIDForUser(ctx, id, userID)
}

// startOfMonth truncates to the first instant of t's calendar month in UTC.
// Quota windows reset on month boundaries, not on rolling 30-day windows.
func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
