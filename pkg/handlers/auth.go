package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/apperrors"
	"github.com/menuguard/menuguard-engine/pkg/audit"
	"github.com/menuguard/menuguard-engine/pkg/auth"
	"github.com/menuguard/menuguard-engine/pkg/models"
	"github.com/menuguard/menuguard-engine/pkg/services"
)

// AuthHandler serves signup, login, logout, and password reset.
type AuthHandler struct {
	accounts services.AccountService
	tokens   auth.TokenService
	sessions *auth.SessionManager
	auditor  *audit.SecurityAuditor
	logger   *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(accounts services.AccountService, tokens auth.TokenService, sessions *auth.SessionManager, auditor *audit.SecurityAuditor, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		tokens:   tokens,
		sessions: sessions,
		auditor:  auditor,
		logger:   logger.Named("auth-handler"),
	}
}

// RegisterRoutes registers the auth routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/signup", h.Signup)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("POST /api/auth/reset/request", h.RequestReset)
	mux.HandleFunc("POST /api/auth/reset/confirm", h.ConfirmReset)
}

type signupRequest struct {
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	AgreedToPolicy bool   `json:"agreedToPolicy"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token   string          `json:"token"`
	Profile *models.Profile `json:"profile"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}
	if !req.AgreedToPolicy {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "You must agree to the usage policy")
		return
	}

	profile, err := h.accounts.Signup(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	h.auditor.LogSignup(profile.ID, profile.Email, r.RemoteAddr)

	h.openSession(w, r, profile, http.StatusCreated)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	profile, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			h.auditor.LogLoginFailure(req.Email, r.RemoteAddr)
		}
		WriteServiceError(w, h.logger, err)
		return
	}

	h.openSession(w, r, profile, http.StatusOK)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Warn("failed to clear session", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestReset handles POST /api/auth/reset/request
// Responds 202 regardless of whether the email is known.
func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "email is required")
		return
	}

	token, err := h.accounts.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	// Delivery is out of band. The token is logged so an operator can
	// forward it until a mail integration exists.
	if token != "" {
		h.logger.Info("password reset token issued", zap.String("token", token))
		h.auditor.LogPasswordResetRequested(req.Email, r.RemoteAddr)
	}
	w.WriteHeader(http.StatusAccepted)
}

// ConfirmReset handles POST /api/auth/reset/confirm
func (h *AuthHandler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "token is required")
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	h.auditor.LogPasswordResetCompleted(r.RemoteAddr)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) openSession(w http.ResponseWriter, r *http.Request, profile *models.Profile, status int) {
	token, err := h.tokens.IssueToken(profile.ID, profile.Email)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Something went wrong.")
		return
	}

	if err := h.sessions.SaveToken(w, r, token); err != nil {
		h.logger.Warn("failed to save session cookie", zap.Error(err))
	}

	if err := WriteJSON(w, status, sessionResponse{Token: token, Profile: profile}); err != nil {
		h.logger.Error("Failed to encode session response", zap.Error(err))
	}
}
