package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/apperrors"
	"github.com/menuguard/menuguard-engine/pkg/audit"
	"github.com/menuguard/menuguard-engine/pkg/auth"
	"github.com/menuguard/menuguard-engine/pkg/models"
	"github.com/menuguard/menuguard-engine/pkg/services"
)

// stubAccountService scripts signup, login, and password reset.
type stubAccountService struct {
	profile    *models.Profile
	signupErr  error
	loginErr   error
	resetToken string
	resetErr   error
	confirmErr error
}

var _ services.AccountService = (*stubAccountService)(nil)

func (s *stubAccountService) Signup(ctx context.Context, email, username, password string) (*models.Profile, error) {
	if s.signupErr != nil {
		return nil, s.signupErr
	}
	return s.profile, nil
}

func (s *stubAccountService) Login(ctx context.Context, email, password string) (*models.Profile, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.profile, nil
}

func (s *stubAccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return s.resetToken, s.resetErr
}

func (s *stubAccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.confirmErr
}

type authFixture struct {
	mux      *http.ServeMux
	accounts *stubAccountService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	logger := zap.NewNop()

	f := &authFixture{
		accounts: &stubAccountService{
			profile: &models.Profile{ID: uuid.New(), Email: "diner@example.com", Username: "diner"},
		},
	}

	sessions := auth.NewSessionManager("auth-handler-test-key", false, 3600)
	tokens := auth.NewTokenService("auth-handler-test-secret", time.Hour, sessions, logger)
	handler := NewAuthHandler(f.accounts, tokens, sessions, audit.NewSecurityAuditor(logger), logger)

	f.mux = http.NewServeMux()
	handler.RegisterRoutes(f.mux)
	return f
}

func (f *authFixture) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, r)
	return w
}

func TestSignup_ReturnsSessionAndCookie(t *testing.T) {
	f := newAuthFixture(t)

	w := f.post(t, "/api/auth/signup", map[string]any{
		"email":          "diner@example.com",
		"username":       "diner",
		"password":       "correct horse",
		"agreedToPolicy": true,
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp sessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Error("expected a token in the response")
	}
	if resp.Profile == nil || resp.Profile.Email != "diner@example.com" {
		t.Errorf("unexpected profile: %+v", resp.Profile)
	}

	foundCookie := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "menuguard_session" {
			foundCookie = true
		}
	}
	if !foundCookie {
		t.Error("expected a session cookie to be set")
	}
}

func TestSignup_RequiresPolicyAgreement(t *testing.T) {
	f := newAuthFixture(t)

	w := f.post(t, "/api/auth/signup", map[string]any{
		"email":    "diner@example.com",
		"password": "correct horse",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without policy agreement, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "usage policy") {
		t.Errorf("expected policy message, got %s", w.Body.String())
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.accounts.signupErr = apperrors.ErrConflict

	w := f.post(t, "/api/auth/signup", map[string]any{
		"email":          "diner@example.com",
		"password":       "correct horse",
		"agreedToPolicy": true,
	})

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for an existing email, got %d", w.Code)
	}
}

func TestLogin_Succeeds(t *testing.T) {
	f := newAuthFixture(t)

	w := f.post(t, "/api/auth/login", map[string]any{
		"email":    "diner@example.com",
		"password": "correct horse",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp sessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Error("expected a token in the response")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.accounts.loginErr = apperrors.ErrInvalidCredentials

	w := f.post(t, "/api/auth/login", map[string]any{
		"email":    "diner@example.com",
		"password": "wrong",
	})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad credentials, got %d", w.Code)
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	f := newAuthFixture(t)

	w := f.post(t, "/api/auth/logout", map[string]any{})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	for _, c := range w.Result().Cookies() {
		if c.Name == "menuguard_session" && c.MaxAge >= 0 {
			t.Error("expected the session cookie to be expired")
		}
	}
}

func TestRequestReset_AlwaysAccepted(t *testing.T) {
	f := newAuthFixture(t)
	// Unknown email yields no token but the same response.
	f.accounts.resetToken = ""

	w := f.post(t, "/api/auth/reset/request", map[string]any{"email": "nobody@example.com"})
	if w.Code != http.StatusAccepted {
		t.Errorf("expected 202 for an unknown email, got %d", w.Code)
	}

	f.accounts.resetToken = "abc123"
	w = f.post(t, "/api/auth/reset/request", map[string]any{"email": "diner@example.com"})
	if w.Code != http.StatusAccepted {
		t.Errorf("expected 202 for a known email, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "abc123") {
		t.Error("reset token must not appear in the response body")
	}
}

func TestRequestReset_RequiresEmail(t *testing.T) {
	f := newAuthFixture(t)

	w := f.post(t, "/api/auth/reset/request", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without an email, got %d", w.Code)
	}
}

func TestConfirmReset(t *testing.T) {
	f := newAuthFixture(t)

	w := f.post(t, "/api/auth/reset/confirm", map[string]any{
		"token":       "abc123",
		"newPassword": "fresh password",
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestConfirmReset_InvalidToken(t *testing.T) {
	f := newAuthFixture(t)
	f.accounts.confirmErr = apperrors.ErrInvalidResetToken

	w := f.post(t, "/api/auth/reset/confirm", map[string]any{
		"token":       "stale",
		"newPassword": "fresh password",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an invalid token, got %d", w.Code)
	}
}
