package handler

import (
	"net/http"

	"github.com/straye-as/sales-dashboard-api/internal/service"
	"go.uber.org/zap"
)

type RefreshHandler struct {
	refreshService *service.RefreshService
	logger         *zap.Logger
}

// NewRefreshHandler creates the handler. A nil service means no upstream is configured.
func NewRefreshHandler(refreshService *service.RefreshService, logger *zap.Logger) *RefreshHandler {
	return &RefreshHandler{
		refreshService: refreshService,
		logger:         logger,
	}
}

// @Summary Refresh the deal snapshot
// @Description Fetches every deal from the configured upstream (Zoho CRM or the data warehouse), stores the snapshot and prunes expired archives.
// @Description The previous snapshot stays current when the fetch fails.
// @Tags Refresh
// @Produce json
// @Success 200 {object} domain.RefreshResultDTO
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "A refresh is already running"
// @Failure 502 {object} domain.APIError "Upstream unavailable"
// @Failure 503 {object} domain.APIError "No upstream configured"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /refresh [post]
func (h *RefreshHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.refreshService == nil {
		respondWithError(w, http.StatusServiceUnavailable, "no refresh upstream is configured")
		return
	}

	result, err := h.refreshService.Refresh(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
