package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/auth"
	"github.com/menuguard/menuguard-engine/pkg/models"
)

func TestBillingUpgrade(t *testing.T) {
	logger := zap.NewNop()
	userID := uuid.New()
	quota := 5
	profiles := &stubProfileService{
		profile: &models.Profile{ID: userID, Email: "diner@example.com", MaxAnalysesPerMonth: &quota},
	}

	tokens := auth.NewTokenService("billing-test-secret", time.Hour, nil, logger)
	authMW := auth.NewMiddleware(tokens, logger)
	handler := NewBillingHandler(profiles, logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authMW)

	token, err := tokens.IssueToken(userID, "diner@example.com")
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/billing/upgrade", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var profile models.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatal(err)
	}
	if !profile.IsPro {
		t.Error("expected the returned profile to be pro")
	}
	if profile.MaxAnalysesPerMonth != nil {
		t.Error("expected the monthly cap to be removed")
	}
}

func TestBillingUpgrade_RequiresAuth(t *testing.T) {
	logger := zap.NewNop()
	tokens := auth.NewTokenService("billing-test-secret", time.Hour, nil, logger)
	authMW := auth.NewMiddleware(tokens, logger)
	handler := NewBillingHandler(&stubProfileService{}, logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authMW)

	r := httptest.NewRequest(http.MethodPost, "/api/billing/upgrade", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", w.Code)
	}
}
