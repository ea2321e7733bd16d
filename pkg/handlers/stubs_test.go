package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/menuguard/menuguard-engine/pkg/models"
	"github.com/menuguard/menuguard-engine/pkg/services"
)

// stubAnalysisService lets each test script the gateway's model operations.
type stubAnalysisService struct {
	analyzeFunc     func(ctx context.Context, req *models.AnalysisRequest) ([]models.AnalysisResultItem, error)
	summarizeFunc   func(ctx context.Context, req *models.SummarizeRequest) (string, error)
	alternativeFunc func(ctx context.Context, req *models.AlternativeRequest) (string, error)
	chatFunc        func(ctx context.Context, req *models.ChatRequest) (string, error)
}

var _ services.AnalysisService = (*stubAnalysisService)(nil)

func (s *stubAnalysisService) Analyze(ctx context.Context, req *models.AnalysisRequest) ([]models.AnalysisResultItem, error) {
	if s.analyzeFunc == nil {
		return []models.AnalysisResultItem{}, nil
	}
	return s.analyzeFunc(ctx, req)
}

func (s *stubAnalysisService) Summarize(ctx context.Context, req *models.SummarizeRequest) (string, error) {
	if s.summarizeFunc == nil {
		return "", nil
	}
	return s.summarizeFunc(ctx, req)
}

func (s *stubAnalysisService) Alternative(ctx context.Context, req *models.AlternativeRequest) (string, error) {
	if s.alternativeFunc == nil {
		return "", nil
	}
	return s.alternativeFunc(ctx, req)
}

func (s *stubAnalysisService) Chat(ctx context.Context, req *models.ChatRequest) (string, error) {
	if s.chatFunc == nil {
		return "", nil
	}
	return s.chatFunc(ctx, req)
}

// stubProfileService returns a fixed profile.
type stubProfileService struct {
	profile *models.Profile
	err     error
}

var _ services.ProfileService = (*stubProfileService)(nil)

func (s *stubProfileService) Get(ctx context.Context, userID uuid.UUID, email string) (*models.Profile, error) {
	return s.profile, s.err
}

func (s *stubProfileService) Update(ctx context.Context, userID uuid.UUID, update *models.ProfileUpdate) (*models.Profile, error) {
	return s.profile, s.err
}

func (s *stubProfileService) Upgrade(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if s.profile != nil {
		s.profile.IsPro = true
		s.profile.MaxAnalysesPerMonth = nil
	}
	return s.profile, s.err
}

func (s *stubProfileService) EffectivePreferences(p *models.Profile) string {
	if p == nil || !p.IsPro {
		return ""
	}
	return p.Preferences
}

// stubHistoryService records calls and returns scripted errors.
type stubHistoryService struct {
	quotaErr    error
	recordErr   error
	recorded    []*models.HistoryEntry
	listEntries []*models.HistoryEntry
	deleteErr   error
}

var _ services.HistoryService = (*stubHistoryService)(nil)

func (s *stubHistoryService) CheckQuota(ctx context.Context, profile *models.Profile) error {
	return s.quotaErr
}

func (s *stubHistoryService) Record(ctx context.Context, userID uuid.UUID, analysisType, inputText string, results []models.AnalysisResultItem, allergies, preferences string) (*models.HistoryEntry, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	entry := &models.HistoryEntry{
		ID:           uuid.New(),
		UserID:       userID,
		CreatedAt:    time.Now(),
		Status:       models.HistoryStatusCompleted,
		AnalysisType: analysisType,
		InputText:    inputText,
		Allergies:    allergies,
		Preferences:  preferences,
	}
	s.recorded = append(s.recorded, entry)
	return entry, nil
}

func (s *stubHistoryService) List(ctx context.Context, userID uuid.UUID) ([]*models.HistoryEntry, error) {
	return s.listEntries, nil
}

func (s *stubHistoryService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.deleteErr
}

// stubPlacesClient returns a scripted restaurant list.
type stubPlacesClient struct {
	restaurants []models.Restaurant
	err         error
}

func (s *stubPlacesClient) NearbyRestaurants(ctx context.Context, lat, lng float64) ([]models.Restaurant, error) {
	return s.restaurants, s.err
}
