package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/auth"
	"github.com/menuguard/menuguard-engine/pkg/models"
	"github.com/menuguard/menuguard-engine/pkg/services"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	profiles services.ProfileService
	history  services.HistoryService
	logger   *zap.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profiles services.ProfileService, history services.HistoryService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		history:  history,
		logger:   logger.Named("profile-handler"),
	}
}

// profileResponse is the profile joined with the caller's analysis history,
// so the client boots from one request.
type profileResponse struct {
	*models.Profile
	History []historyEntryResponse `json:"history"`
}

// RegisterRoutes registers the profile routes on the given mux.
func (h *ProfileHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/profile", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/profile", authMiddleware.RequireAuth(h.Update))
}

// Get handles GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}
	claims, _ := auth.GetClaims(r.Context())

	profile, err := h.profiles.Get(r.Context(), userID, claims.Email)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	entries, err := h.history.List(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	response := profileResponse{Profile: profile, History: historyEntries(entries)}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode profile", zap.Error(err))
	}
}

// Update handles PUT /api/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var update models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	profile, err := h.profiles.Update(r.Context(), userID, &update)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, profile); err != nil {
		h.logger.Error("Failed to encode profile", zap.Error(err))
	}
}
