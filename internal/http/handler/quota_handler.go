package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/service"
	"go.uber.org/zap"
)

type QuotaHandler struct {
	quotaService     *service.QuotaService
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewQuotaHandler(quotaService *service.QuotaService, dashboardService *service.DashboardService, logger *zap.Logger) *QuotaHandler {
	return &QuotaHandler{
		quotaService:     quotaService,
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// fiscalYearParam returns the fiscalYear query parameter or the current fiscal year
func (h *QuotaHandler) fiscalYearParam(r *http.Request) string {
	if fy := strings.TrimSpace(r.URL.Query().Get("fiscalYear")); fy != "" {
		return fy
	}
	return h.dashboardService.FiscalCalendar(time.Time{}).FiscalYear
}

// @Summary List quotas
// @Description Quotas of one fiscal year ordered by region
// @Tags Quotas
// @Produce json
// @Param fiscalYear query string false "Fiscal year label such as 2024-2025, defaults to the current one"
// @Success 200 {array} domain.QuotaDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotas [get]
func (h *QuotaHandler) List(w http.ResponseWriter, r *http.Request) {
	quotas, err := h.quotaService.List(r.Context(), h.fiscalYearParam(r))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, quotas)
}

// @Summary Set a region quota
// @Description Creates or replaces the quota of a region for one fiscal year
// @Tags Quotas
// @Accept json
// @Produce json
// @Param region path string true "Region name"
// @Param request body domain.UpsertQuotaRequest true "Quota"
// @Success 200 {object} domain.QuotaDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotas/{region} [put]
func (h *QuotaHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	region := chi.URLParam(r, "region")

	var req domain.UpsertQuotaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	quota, err := h.quotaService.Upsert(r.Context(), region, &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, quota)
}

// @Summary Delete a region quota
// @Tags Quotas
// @Param region path string true "Region name"
// @Param fiscalYear query string false "Fiscal year label, defaults to the current one"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotas/{region} [delete]
func (h *QuotaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	region := chi.URLParam(r, "region")

	if err := h.quotaService.Delete(r.Context(), region, h.fiscalYearParam(r)); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
