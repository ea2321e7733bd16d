package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/config"
)

// DependencyPinger reports whether a backing store is reachable.
// *database.DB satisfies it through its embedded pgxpool.Pool.
type DependencyPinger interface {
	Ping(ctx context.Context) error
}

// PingResponse contains service status, version, and dependency readiness.
type PingResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Service       string `json:"service"`
	GoVersion     string `json:"go_version"`
	Hostname      string `json:"hostname"`
	Environment   string `json:"environment"`
	Database      string `json:"database"`
	PasswordReset string `json:"password_reset"`
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg          *config.Config
	db           DependencyPinger
	resetEnabled bool
	logger       *zap.Logger
}

// NewHealthHandler creates a HealthHandler. db may be nil when the service
// runs without a database, and resetEnabled mirrors whether a reset token
// store was configured.
func NewHealthHandler(cfg *config.Config, db DependencyPinger, resetEnabled bool, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, db: db, resetEnabled: resetEnabled, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ping", h.Ping)
}

// Health handles GET /health requests.
// Returns a simple "ok" status for load balancer health checks.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping handles GET /ping requests.
// Returns service information plus the readiness of the stores the
// account and history features depend on.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:        "ok",
		Version:       h.cfg.Version,
		Service:       "menuguard-engine",
		GoVersion:     runtime.Version(),
		Hostname:      hostname,
		Environment:   h.cfg.Env,
		Database:      h.databaseStatus(r.Context()),
		PasswordReset: "disabled",
	}
	if h.resetEnabled {
		response.PasswordReset = "enabled"
	}
	if response.Database == "unavailable" {
		response.Status = "degraded"
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}

func (h *HealthHandler) databaseStatus(ctx context.Context) string {
	if h.db == nil {
		return "not_configured"
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.db.Ping(pingCtx); err != nil {
		h.logger.Warn("Database ping failed", zap.Error(err))
		return "unavailable"
	}
	return "ok"
}
