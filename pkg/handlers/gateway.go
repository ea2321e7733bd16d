package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/apperrors"
	"github.com/menuguard/menuguard-engine/pkg/auth"
	"github.com/menuguard/menuguard-engine/pkg/middleware"
	"github.com/menuguard/menuguard-engine/pkg/models"
	"github.com/menuguard/menuguard-engine/pkg/places"
	"github.com/menuguard/menuguard-engine/pkg/services"
)

// maxGatewayBodyBytes caps the request envelope, which may carry an inlined
// menu photo.
const maxGatewayBodyBytes = 10 << 20

// GatewayHandler serves the AI gateway: a single POST endpoint dispatching
// on the envelope's type field. Guests may analyze; authenticated requests
// additionally get quota enforcement, Pro preference personalization, and
// history persistence.
type GatewayHandler struct {
	analysis services.AnalysisService
	profiles services.ProfileService
	history  services.HistoryService
	places   places.Client
	logger   *zap.Logger
}

// NewGatewayHandler creates a GatewayHandler.
func NewGatewayHandler(analysis services.AnalysisService, profiles services.ProfileService, history services.HistoryService, placesClient places.Client, logger *zap.Logger) *GatewayHandler {
	return &GatewayHandler{
		analysis: analysis,
		profiles: profiles,
		history:  history,
		places:   placesClient,
		logger:   logger.Named("gateway"),
	}
}

// RegisterRoutes registers the gateway route on the given mux.
// The method pattern makes the mux answer 405 for non-POST requests.
func (h *GatewayHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, limiter *middleware.RateLimiter) {
	mux.HandleFunc("POST /api/ai", limiter.Middleware(authMiddleware.OptionalAuth(h.Handle)))
}

// Handle handles POST /api/ai
func (h *GatewayHandler) Handle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxGatewayBodyBytes)

	var envelope models.GatewayRequest
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Request body must be a JSON {type, data} envelope")
		return
	}

	switch envelope.Type {
	case models.GatewayTypeAnalyze:
		h.handleAnalyze(w, r, envelope.Data)
	case models.GatewayTypeSummarize:
		h.handleSummarize(w, r, envelope.Data)
	case models.GatewayTypeAlternative:
		h.handleAlternative(w, r, envelope.Data)
	case models.GatewayTypeChat:
		h.handleChat(w, r, envelope.Data)
	case models.GatewayTypePlaces:
		h.handlePlaces(w, r, envelope.Data)
	default:
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("Unknown operation type: %q", envelope.Type))
	}
}

func (h *GatewayHandler) handleAnalyze(w http.ResponseWriter, r *http.Request, data json.RawMessage) {
	var req models.AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid analyze payload")
		return
	}
	if req.Allergies == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "allergies is required")
		return
	}

	profile, err := h.profileForRequest(r)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if profile != nil {
		if err := h.history.CheckQuota(r.Context(), profile); err != nil {
			WriteServiceError(w, h.logger, err)
			return
		}
	}
	// Preference personalization is a Pro feature; the client-supplied
	// value is never trusted.
	req.Preferences = h.profiles.EffectivePreferences(profile)

	items, err := h.analysis.Analyze(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if profile != nil {
		if _, err := h.history.Record(r.Context(), profile.ID, models.GatewayTypeAnalyze,
			analysisInputText(&req), items, req.Allergies, req.Preferences); err != nil {
			// The analysis succeeded; a persistence failure only logs.
			h.logger.Error("failed to record analysis history",
				zap.String("user_id", profile.ID.String()),
				zap.Error(err))
		}
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"results": items}); err != nil {
		h.logger.Error("Failed to encode analyze response", zap.Error(err))
	}
}

func (h *GatewayHandler) handleSummarize(w http.ResponseWriter, r *http.Request, data json.RawMessage) {
	var req models.SummarizeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid summarize payload")
		return
	}

	profile, err := h.profileForRequest(r)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	req.Preferences = h.profiles.EffectivePreferences(profile)

	summary, err := h.analysis.Summarize(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, map[string]string{"summary": summary}); err != nil {
		h.logger.Error("Failed to encode summarize response", zap.Error(err))
	}
}

func (h *GatewayHandler) handleAlternative(w http.ResponseWriter, r *http.Request, data json.RawMessage) {
	var req models.AlternativeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid alternative payload")
		return
	}

	profile, err := h.profileForRequest(r)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	req.Preferences = h.profiles.EffectivePreferences(profile)

	suggestion, err := h.analysis.Alternative(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, map[string]string{"suggestion": suggestion}); err != nil {
		h.logger.Error("Failed to encode alternative response", zap.Error(err))
	}
}

func (h *GatewayHandler) handleChat(w http.ResponseWriter, r *http.Request, data json.RawMessage) {
	var req models.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid chat payload")
		return
	}

	profile, err := h.profileForRequest(r)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	req.Preferences = h.profiles.EffectivePreferences(profile)

	reply, err := h.analysis.Chat(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, map[string]string{"reply": reply}); err != nil {
		h.logger.Error("Failed to encode chat response", zap.Error(err))
	}
}

func (h *GatewayHandler) handlePlaces(w http.ResponseWriter, r *http.Request, data json.RawMessage) {
	var req models.PlacesRequest
	if err := json.Unmarshal(data, &req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid places payload")
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Coordinates out of range")
		return
	}

	restaurants, err := h.places.NearbyRestaurants(r.Context(), req.Latitude, req.Longitude)
	if err != nil {
		WriteServiceError(w, h.logger, fmt.Errorf("%w: %v", apperrors.ErrUpstream, err))
		return
	}
	if err := WriteJSON(w, http.StatusOK, map[string]any{"restaurants": restaurants}); err != nil {
		h.logger.Error("Failed to encode places response", zap.Error(err))
	}
}

// profileForRequest loads the caller's profile, or nil for guests.
func (h *GatewayHandler) profileForRequest(r *http.Request) (*models.Profile, error) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		return nil, nil
	}
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		return nil, nil
	}
	return h.profiles.Get(r.Context(), userID, claims.Email)
}

// analysisInputText summarizes what the diner submitted for history display.
func analysisInputText(req *models.AnalysisRequest) string {
	source, err := req.Source()
	if err != nil {
		return ""
	}
	switch source {
	case models.MenuSourceURL:
		return req.MenuURL
	case models.MenuSourceImage:
		return "(menu photo)"
	default:
		return req.MenuText
	}
}
