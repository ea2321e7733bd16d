package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/apperrors"
)

// WriteServiceError maps sentinel errors from the service layer onto HTTP
// status codes. Anything unmapped becomes an opaque 500.
func WriteServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrNoMenuSource),
		errors.Is(err, apperrors.ErrChatHistoryMismatch):
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		_ = ErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, apperrors.ErrQuotaExceeded):
		_ = ErrorResponse(w, http.StatusForbidden, "quota_exceeded", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		_ = ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		_ = ErrorResponse(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, apperrors.ErrInvalidResetToken):
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_reset_token", err.Error())
	case errors.Is(err, apperrors.ErrUpstream):
		logger.Warn("upstream failure", zap.Error(err))
		_ = ErrorResponse(w, http.StatusBadGateway, "upstream_error", "An upstream service failed. Please try again.")
	default:
		logger.Error("unhandled service error", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Something went wrong.")
	}
}
