package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/config"
)

// ClientConfig is the public configuration the web client boots from.
// Nothing here is secret: the places key is the browser-restricted one
// used by the map widget.
type ClientConfig struct {
	Version              string `json:"version"`
	Environment          string `json:"environment"`
	PlacesAPIKey         string `json:"placesApiKey"`
	PasswordResetEnabled bool   `json:"passwordResetEnabled"`
}

// ClientConfigHandler serves the client bootstrap configuration.
type ClientConfigHandler struct {
	cfg                  *config.Config
	passwordResetEnabled bool
	logger               *zap.Logger
}

// NewClientConfigHandler creates a ClientConfigHandler.
func NewClientConfigHandler(cfg *config.Config, passwordResetEnabled bool, logger *zap.Logger) *ClientConfigHandler {
	return &ClientConfigHandler{
		cfg:                  cfg,
		passwordResetEnabled: passwordResetEnabled,
		logger:               logger,
	}
}

// RegisterRoutes registers the client config route on the given mux.
func (h *ClientConfigHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/client-config", h.Get)
}

// Get handles GET /api/client-config
// The web client cannot boot without the places key, so a missing key is a
// server misconfiguration, not an empty field.
func (h *ClientConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Places.APIKey == "" {
		h.logger.Error("places API key is not configured")
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Service configuration is incomplete")
		return
	}

	response := ClientConfig{
		Version:              h.cfg.Version,
		Environment:          h.cfg.Env,
		PlacesAPIKey:         h.cfg.Places.APIKey,
		PasswordResetEnabled: h.passwordResetEnabled,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode client config", zap.Error(err))
	}
}
