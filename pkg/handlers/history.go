package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/auth"
	"github.com/menuguard/menuguard-engine/pkg/models"
	"github.com/menuguard/menuguard-engine/pkg/services"
)

// historyEntryResponse is the wire shape of one history entry. The stored
// result blob is decoded through the structural check, so a corrupt row
// still renders as a single Data Error item.
type historyEntryResponse struct {
	ID           uuid.UUID                   `json:"id"`
	CreatedAt    time.Time                   `json:"createdAt"`
	Status       string                      `json:"status"`
	AnalysisType string                      `json:"analysisType"`
	InputText    string                      `json:"inputText"`
	Results      []models.AnalysisResultItem `json:"results"`
	Allergies    string                      `json:"allergies"`
	Preferences  string                      `json:"preferences"`
}

// HistoryHandler serves the caller's persisted analysis history.
type HistoryHandler struct {
	history services.HistoryService
	logger  *zap.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(history services.HistoryService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  logger.Named("history-handler"),
	}
}

// RegisterRoutes registers the history routes on the given mux.
func (h *HistoryHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/history", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("DELETE /api/history/{id}", authMiddleware.RequireAuth(h.Delete))
}

// List handles GET /api/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	entries, err := h.history.List(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"entries": historyEntries(entries)}); err != nil {
		h.logger.Error("Failed to encode history", zap.Error(err))
	}
}

// historyEntries maps stored entries onto the wire shape. Shared with the
// profile handler, which joins history into the profile response.
func historyEntries(entries []*models.HistoryEntry) []historyEntryResponse {
	response := make([]historyEntryResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, historyEntryResponse{
			ID:           e.ID,
			CreatedAt:    e.CreatedAt,
			Status:       e.Status,
			AnalysisType: e.AnalysisType,
			InputText:    e.InputText,
			Results:      e.Items(),
			Allergies:    e.Allergies,
			Preferences:  e.Preferences,
		})
	}
	return response
}

// Delete handles DELETE /api/history/{id}
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	entryID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "Invalid history entry ID")
		return
	}

	if err := h.history.Delete(r.Context(), entryID, userID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
