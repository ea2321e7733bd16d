package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/auth"
	"github.com/menuguard/menuguard-engine/pkg/services"
)

// BillingHandler serves subscription tier changes. Payment processing is
// external; this endpoint records the resulting tier.
type BillingHandler struct {
	profiles services.ProfileService
	logger   *zap.Logger
}

// NewBillingHandler creates a BillingHandler.
func NewBillingHandler(profiles services.ProfileService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		profiles: profiles,
		logger:   logger.Named("billing-handler"),
	}
}

// RegisterRoutes registers the billing routes on the given mux.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/billing/upgrade", authMiddleware.RequireAuth(h.Upgrade))
}

// Upgrade handles POST /api/billing/upgrade
func (h *BillingHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	profile, err := h.profiles.Upgrade(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, profile); err != nil {
		h.logger.Error("Failed to encode profile", zap.Error(err))
	}
}
