package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/apperrors"
	"github.com/menuguard/menuguard-engine/pkg/auth"
	"github.com/menuguard/menuguard-engine/pkg/middleware"
	"github.com/menuguard/menuguard-engine/pkg/models"
)

type gatewayFixture struct {
	mux      *http.ServeMux
	analysis *stubAnalysisService
	profiles *stubProfileService
	history  *stubHistoryService
	places   *stubPlacesClient
	tokens   auth.TokenService
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	logger := zap.NewNop()

	f := &gatewayFixture{
		analysis: &stubAnalysisService{},
		profiles: &stubProfileService{},
		history:  &stubHistoryService{},
		places:   &stubPlacesClient{},
	}

	f.tokens = auth.NewTokenService("gateway-test-secret", time.Hour, nil, logger)
	authMW := auth.NewMiddleware(f.tokens, logger)
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RatePerMinute:   6000,
		Burst:           1000,
		CleanupInterval: time.Minute,
	}, logger)
	t.Cleanup(limiter.Stop)

	handler := NewGatewayHandler(f.analysis, f.profiles, f.history, f.places, logger)
	f.mux = http.NewServeMux()
	handler.RegisterRoutes(f.mux, authMW, limiter)
	return f
}

func (f *gatewayFixture) post(t *testing.T, envelope any, token string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(envelope)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/ai", bytes.NewReader(body))
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, r)
	return w
}

func envelope(opType string, data any) map[string]any {
	return map[string]any{"type": opType, "data": data}
}

func TestGateway_MethodNotAllowed(t *testing.T) {
	f := newGatewayFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/api/ai", nil)
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, r)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", w.Code)
	}
}

func TestGateway_UnknownType(t *testing.T) {
	f := newGatewayFixture(t)

	w := f.post(t, envelope("translate", map[string]any{}), "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown type, got %d", w.Code)
	}
}

func TestGateway_MalformedEnvelope(t *testing.T) {
	f := newGatewayFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/api/ai", bytes.NewReader([]byte("{nope")))
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestGateway_AnalyzeGuest(t *testing.T) {
	f := newGatewayFixture(t)
	f.analysis.analyzeFunc = func(ctx context.Context, req *models.AnalysisRequest) ([]models.AnalysisResultItem, error) {
		if req.Preferences != "" {
			t.Errorf("expected guest preferences stripped, got %q", req.Preferences)
		}
		return []models.AnalysisResultItem{
			{ItemName: "Pad Thai", SafetyLevel: models.SafetyUnsafe, IdentifiedAllergens: []string{"peanuts"}},
		}, nil
	}

	w := f.post(t, envelope(models.GatewayTypeAnalyze, map[string]any{
		"allergies":   "peanuts",
		"preferences": "vegetarian",
		"menuText":    "Pad Thai",
	}), "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Results []models.AnalysisResultItem `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ItemName != "Pad Thai" {
		t.Errorf("unexpected results: %+v", resp.Results)
	}
	if len(f.history.recorded) != 0 {
		t.Error("expected no history for guest analysis")
	}
}

func TestGateway_AnalyzeMissingAllergies(t *testing.T) {
	f := newGatewayFixture(t)

	w := f.post(t, envelope(models.GatewayTypeAnalyze, map[string]any{"menuText": "Pad Thai"}), "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without allergies, got %d", w.Code)
	}
}

func TestGateway_AnalyzeNoMenuSource(t *testing.T) {
	f := newGatewayFixture(t)
	f.analysis.analyzeFunc = func(ctx context.Context, req *models.AnalysisRequest) ([]models.AnalysisResultItem, error) {
		return nil, apperrors.ErrNoMenuSource
	}

	w := f.post(t, envelope(models.GatewayTypeAnalyze, map[string]any{"allergies": "peanuts"}), "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without a menu source, got %d", w.Code)
	}
}

func TestGateway_AnalyzeAuthenticatedRecordsHistory(t *testing.T) {
	f := newGatewayFixture(t)
	userID := uuid.New()
	f.profiles.profile = &models.Profile{ID: userID, Email: "diner@example.com", IsPro: true, Preferences: "vegetarian"}
	f.analysis.analyzeFunc = func(ctx context.Context, req *models.AnalysisRequest) ([]models.AnalysisResultItem, error) {
		if req.Preferences != "vegetarian" {
			t.Errorf("expected pro preferences applied, got %q", req.Preferences)
		}
		return []models.AnalysisResultItem{{ItemName: "Green Salad", SafetyLevel: models.SafetySafe}}, nil
	}

	token, _ := f.tokens.IssueToken(userID, "diner@example.com")
	w := f.post(t, envelope(models.GatewayTypeAnalyze, map[string]any{
		"allergies": "peanuts",
		"menuText":  "Green Salad",
	}), token)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(f.history.recorded) != 1 {
		t.Fatalf("expected 1 history entry recorded, got %d", len(f.history.recorded))
	}
	if f.history.recorded[0].UserID != userID {
		t.Error("expected history recorded for the caller")
	}
}

func TestGateway_AnalyzeQuotaExceeded(t *testing.T) {
	f := newGatewayFixture(t)
	userID := uuid.New()
	quota := 5
	f.profiles.profile = &models.Profile{ID: userID, Email: "diner@example.com", MaxAnalysesPerMonth: &quota}
	f.history.quotaErr = apperrors.ErrQuotaExceeded
	f.analysis.analyzeFunc = func(ctx context.Context, req *models.AnalysisRequest) ([]models.AnalysisResultItem, error) {
		t.Error("expected no analysis call when over quota")
		return nil, nil
	}

	token, _ := f.tokens.IssueToken(userID, "diner@example.com")
	w := f.post(t, envelope(models.GatewayTypeAnalyze, map[string]any{
		"allergies": "peanuts",
		"menuText":  "Pad Thai",
	}), token)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["error"] != "quota_exceeded" {
		t.Errorf("expected quota_exceeded code, got %q", resp["error"])
	}
}

func TestGateway_AnalyzeHistoryFailureDoesNotFailRequest(t *testing.T) {
	f := newGatewayFixture(t)
	userID := uuid.New()
	f.profiles.profile = &models.Profile{ID: userID, Email: "diner@example.com"}
	f.history.recordErr = errors.New("database down")
	f.analysis.analyzeFunc = func(ctx context.Context, req *models.AnalysisRequest) ([]models.AnalysisResultItem, error) {
		return []models.AnalysisResultItem{{ItemName: "Rice", SafetyLevel: models.SafetySafe}}, nil
	}

	token, _ := f.tokens.IssueToken(userID, "diner@example.com")
	w := f.post(t, envelope(models.GatewayTypeAnalyze, map[string]any{
		"allergies": "peanuts",
		"menuText":  "Rice",
	}), token)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 despite persistence failure, got %d", w.Code)
	}
}

func TestGateway_Summarize(t *testing.T) {
	f := newGatewayFixture(t)
	f.analysis.summarizeFunc = func(ctx context.Context, req *models.SummarizeRequest) (string, error) {
		return "Stick to the salad.", nil
	}

	w := f.post(t, envelope(models.GatewayTypeSummarize, map[string]any{
		"results":   []map[string]any{{"itemName": "Salad", "safetyLevel": "safe"}},
		"allergies": "peanuts",
	}), "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["summary"] != "Stick to the salad." {
		t.Errorf("unexpected summary: %q", resp["summary"])
	}
}

func TestGateway_ChatIgnoresClientPreferencesForGuests(t *testing.T) {
	f := newGatewayFixture(t)
	f.analysis.chatFunc = func(ctx context.Context, req *models.ChatRequest) (string, error) {
		if req.Preferences != "" {
			t.Errorf("expected guest preferences stripped, got %q", req.Preferences)
		}
		return "ok", nil
	}

	w := f.post(t, envelope(models.GatewayTypeChat, map[string]any{
		"message":     "what is safe?",
		"allergies":   "peanuts",
		"preferences": "vegan",
	}), "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGateway_SummarizeAppliesProPreferences(t *testing.T) {
	f := newGatewayFixture(t)
	userID := uuid.New()
	f.profiles.profile = &models.Profile{ID: userID, Email: "diner@example.com", IsPro: true, Preferences: "vegetarian"}
	f.analysis.summarizeFunc = func(ctx context.Context, req *models.SummarizeRequest) (string, error) {
		if req.Preferences != "vegetarian" {
			t.Errorf("expected stored pro preferences, got %q", req.Preferences)
		}
		return "ok", nil
	}

	token, _ := f.tokens.IssueToken(userID, "diner@example.com")
	w := f.post(t, envelope(models.GatewayTypeSummarize, map[string]any{
		"results":     []map[string]any{{"itemName": "Salad", "safetyLevel": "safe"}},
		"allergies":   "peanuts",
		"preferences": "client-supplied",
	}), token)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGateway_AlternativeIgnoresClientPreferencesForFreeTier(t *testing.T) {
	f := newGatewayFixture(t)
	userID := uuid.New()
	f.profiles.profile = &models.Profile{ID: userID, Email: "diner@example.com", Preferences: "vegetarian"}
	f.analysis.alternativeFunc = func(ctx context.Context, req *models.AlternativeRequest) (string, error) {
		if req.Preferences != "" {
			t.Errorf("expected no personalization for free tier, got %q", req.Preferences)
		}
		return "ok", nil
	}

	token, _ := f.tokens.IssueToken(userID, "diner@example.com")
	w := f.post(t, envelope(models.GatewayTypeAlternative, map[string]any{
		"allergies":      "peanuts",
		"unsafeItemName": "Pad Thai",
		"preferences":    "client-supplied",
	}), token)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGateway_ChatMismatch(t *testing.T) {
	f := newGatewayFixture(t)
	f.analysis.chatFunc = func(ctx context.Context, req *models.ChatRequest) (string, error) {
		return "", apperrors.ErrChatHistoryMismatch
	}

	w := f.post(t, envelope(models.GatewayTypeChat, map[string]any{
		"message":   "what is safe?",
		"allergies": "peanuts",
		"history":   []map[string]string{{"role": "user", "content": "hi"}},
	}), "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for mismatched history, got %d", w.Code)
	}
}

func TestGateway_UpstreamFailure(t *testing.T) {
	f := newGatewayFixture(t)
	f.analysis.chatFunc = func(ctx context.Context, req *models.ChatRequest) (string, error) {
		return "", fmt.Errorf("%w: provider overloaded", apperrors.ErrUpstream)
	}

	w := f.post(t, envelope(models.GatewayTypeChat, map[string]any{
		"message":   "hi",
		"allergies": "peanuts",
	}), "")

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502 for upstream failure, got %d", w.Code)
	}
}

func TestGateway_Places(t *testing.T) {
	f := newGatewayFixture(t)
	f.places.restaurants = []models.Restaurant{{PlaceID: "p1", Name: "Thai Garden"}}

	w := f.post(t, envelope(models.GatewayTypePlaces, map[string]any{
		"latitude":  51.5,
		"longitude": -0.12,
	}), "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Restaurants []models.Restaurant `json:"restaurants"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Restaurants) != 1 || resp.Restaurants[0].Name != "Thai Garden" {
		t.Errorf("unexpected restaurants: %+v", resp.Restaurants)
	}
}

func TestGateway_PlacesBadCoordinates(t *testing.T) {
	f := newGatewayFixture(t)

	w := f.post(t, envelope(models.GatewayTypePlaces, map[string]any{
		"latitude":  123.0,
		"longitude": -0.12,
	}), "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for out-of-range latitude, got %d", w.Code)
	}
}

func TestGateway_PlacesUpstreamFailure(t *testing.T) {
	f := newGatewayFixture(t)
	f.places.err = errors.New("REQUEST_DENIED")

	w := f.post(t, envelope(models.GatewayTypePlaces, map[string]any{
		"latitude":  51.5,
		"longitude": -0.12,
	}), "")

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502 for places failure, got %d", w.Code)
	}
}
