package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/straye-as/sales-dashboard-api/internal/database"
	"github.com/straye-as/sales-dashboard-api/internal/datawarehouse"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const healthCheckTimeout = 5 * time.Second

// SnapshotLookup reports the newest stored snapshot
type SnapshotLookup interface {
	LatestSnapshot(ctx context.Context) (*domain.DealSnapshot, error)
}

type HealthHandler struct {
	db        *gorm.DB
	warehouse *datawarehouse.Client
	snapshots SnapshotLookup
	logger    *zap.Logger
}

// NewHealthHandler creates the health handler. warehouse and snapshots may be nil.
func NewHealthHandler(db *gorm.DB, warehouse *datawarehouse.Client, snapshots SnapshotLookup, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		warehouse: warehouse,
		snapshots: snapshots,
		logger:    logger,
	}
}

// @Summary Liveness probe
// @Tags Health
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /health [get]
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// @Summary Database health
// @Description Pings the database and reports connection pool statistics
// @Tags Health
// @Produce json
// @Success 200 {object} database.HealthStatus
// @Failure 503 {object} database.HealthStatus
// @Router /health/db [get]
func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := database.HealthCheck(ctx, h.db)
	if status.Status != "healthy" {
		h.logger.Error("Database health check failed", zap.String("error", status.Error))
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// @Summary Readiness probe
// @Description Checks the database and the data warehouse when enabled. Snapshot age is reported but never fails the probe.
// @Tags Health
// @Produce json
// @Success 200 {object} domain.HealthDTO
// @Failure 503 {object} domain.HealthDTO
// @Router /health/ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := make(map[string]domain.HealthCheck)
	allHealthy := true

	dbStatus := database.HealthCheck(ctx, h.db)
	checks["database"] = domain.HealthCheck{
		Status:    dbStatus.Status,
		LatencyMs: dbStatus.LatencyMs,
		Detail:    dbStatus.Error,
	}
	if dbStatus.Status != "healthy" {
		h.logger.Error("Database health check failed", zap.String("error", dbStatus.Error))
		allHealthy = false
	}

	if h.warehouse.IsEnabled() {
		dwStatus := h.warehouse.HealthCheck(ctx)
		checks["dataWarehouse"] = domain.HealthCheck{
			Status:    dwStatus.Status,
			LatencyMs: dwStatus.LatencyMs,
			Detail:    dwStatus.Error,
		}
		if dwStatus.Status != "healthy" {
			allHealthy = false
		}
	}

	if h.snapshots != nil {
		checks["snapshot"] = h.snapshotCheck(ctx)
	}

	resp := domain.HealthDTO{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if !allHealthy {
		resp.Status = "unhealthy"
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *HealthHandler) snapshotCheck(ctx context.Context) domain.HealthCheck {
	snapshot, err := h.snapshots.LatestSnapshot(ctx)
	if err != nil {
		h.logger.Warn("Snapshot lookup failed", zap.Error(err))
		return domain.HealthCheck{Status: "unknown", Detail: err.Error()}
	}
	if snapshot == nil {
		return domain.HealthCheck{Status: "missing"}
	}
	age := time.Since(snapshot.FetchedAt).Round(time.Second)
	return domain.HealthCheck{
		Status: "present",
		Detail: fmt.Sprintf("fetched %s ago from %s (%d deals)", age, snapshot.Source, snapshot.RecordCount),
	}
}
