package handler

import (
	"net/http"
	"strings"

	"github.com/straye-as/sales-dashboard-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// @Summary Get dashboard aggregates
// @Description Aggregates the current deal snapshot into the dashboard views.
// @Description
// @Description - `regionalPipeline`: value and count per fiscal quarter and region, by closing date
// @Description - `stageBreakdown`: funnel per region in first-seen stage order
// @Description - `newVsExistingSplit`: new business versus existing customers
// @Description - `revenueProjection`: quota, achieved (Closed Won) and probability-weighted projections
// @Description - `likelyClosures`: open deals with probability of at least 70
// @Description - `opportunityTypeTotals`: POC, MAP and GenAI buckets
// @Description
// @Description Every region appears in every view. Quotas come from the quota store for the fiscal year containing `asOf`.
// @Tags Dashboard
// @Produce json
// @Param asOf query string false "Reference date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} aggregation.Result
// @Failure 400 {object} domain.APIError
// @Failure 502 {object} domain.APIError "Deal source unavailable"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.dashboardService.GetDashboard(r.Context(), asOf)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// @Summary Get current quarter overview
// @Description Totals for the fiscal quarter containing `asOf` across all regions, the stage funnel and the quarter dates of the fiscal year.
// @Tags Dashboard
// @Produce json
// @Param asOf query string false "Reference date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} domain.OverviewDTO
// @Failure 400 {object} domain.APIError
// @Failure 502 {object} domain.APIError "Deal source unavailable"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/overview [get]
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	overview, err := h.dashboardService.GetOverview(r.Context(), asOf)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, overview)
}

// @Summary Get agent performance
// @Description Per-owner totals of a region sorted by value. Without `region` all deals are included.
// @Tags Dashboard
// @Produce json
// @Param region query string false "Region name"
// @Success 200 {object} domain.AgentPerformanceDTO
// @Failure 502 {object} domain.APIError "Deal source unavailable"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/agents [get]
func (h *DashboardHandler) GetAgentPerformance(w http.ResponseWriter, r *http.Request) {
	region := strings.TrimSpace(r.URL.Query().Get("region"))

	perf, err := h.dashboardService.GetAgentPerformance(r.Context(), region)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, perf)
}

// @Summary Get fiscal calendar
// @Description Fiscal year, current quarter and quarter date ranges for the date `asOf`.
// @Tags Fiscal
// @Produce json
// @Param asOf query string false "Reference date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} domain.FiscalCalendarDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /fiscal/calendar [get]
func (h *DashboardHandler) GetFiscalCalendar(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, h.dashboardService.FiscalCalendar(asOf))
}
