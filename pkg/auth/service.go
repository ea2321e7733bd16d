package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenService issues and validates the service's own HS256 tokens.
type TokenService interface {
	// IssueToken creates a signed token for the given profile.
	IssueToken(userID uuid.UUID, email string) (string, error)

	// ValidateToken parses and verifies a raw token string.
	ValidateToken(raw string) (*Claims, error)

	// ValidateRequest extracts and validates a token from the request,
	// checking the Authorization header first and the session cookie second.
	ValidateRequest(r *http.Request) (*Claims, string, error)
}

type tokenService struct {
	secret   []byte
	tokenTTL time.Duration
	sessions *SessionManager
	logger   *zap.Logger
}

// Compile-time check that tokenService implements TokenService
var _ TokenService = (*tokenService)(nil)

// NewTokenService creates a TokenService signing with the given secret.
func NewTokenService(secret string, tokenTTL time.Duration, sessions *SessionManager, logger *zap.Logger) *tokenService {
	return &tokenService{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		sessions: sessions,
		logger:   logger.Named("auth"),
	}
}

// IssueToken creates a signed token for the given profile.
func (s *tokenService) IssueToken(userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			Issuer:    "menuguard-engine",
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a raw token string.
func (s *tokenService) ValidateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ValidateRequest extracts and validates a token from the request.
func (s *tokenService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	raw := s.extractToken(r)
	if raw == "" {
		return nil, "", fmt.Errorf("no token in request")
	}

	claims, err := s.ValidateToken(raw)
	if err != nil {
		return nil, "", err
	}
	return claims, raw, nil
}

func (s *tokenService) extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimPrefix(header, "Bearer ")
		}
	}

	if s.sessions != nil {
		if token, ok := s.sessions.TokenFromRequest(r); ok {
			return token
		}
	}
	return ""
}
