package service

import (
	"context"
	"fmt"
	"time"

	"github.com/straye-as/sales-dashboard-api/internal/aggregation"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/fiscal"
	"github.com/straye-as/sales-dashboard-api/internal/metrics"
	"github.com/straye-as/sales-dashboard-api/internal/source"
	"go.uber.org/zap"
)

// QuotaProvider supplies the quota of every region for one fiscal year
type QuotaProvider interface {
	QuotasFor(ctx context.Context, fiscalYear string) (map[string]domain.Money, error)
}

type DashboardService struct {
	source   source.Source
	quotas   QuotaProvider
	calendar fiscal.Calendar
	clock    Clock
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewDashboardService(
	src source.Source,
	quotas QuotaProvider,
	calendar fiscal.Calendar,
	clock Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) *DashboardService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &DashboardService{
		source:   src,
		quotas:   quotas,
		calendar: calendar,
		clock:    clock,
		metrics:  m,
		logger:   logger,
	}
}

// Calendar returns the fiscal calendar the service aggregates with
func (s *DashboardService) Calendar() fiscal.Calendar {
	return s.calendar
}

// ResolveAsOf returns asOf, or the current time when it is zero
func (s *DashboardService) ResolveAsOf(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return s.clock.Now()
	}
	return asOf
}

// GetDashboard loads the current snapshot and aggregates it as of the given date.
// Quotas of the fiscal year containing asOf are merged into the revenue projection.
func (s *DashboardService) GetDashboard(ctx context.Context, asOf time.Time) (*aggregation.Result, error) {
	asOf = s.ResolveAsOf(asOf)
	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}

	fiscalYear := s.calendar.FiscalYearOf(asOf).Label()
	quotas := s.loadQuotas(ctx, fiscalYear)

	start := time.Now()
	result := aggregation.Aggregate(records, aggregation.Options{
		AsOf:     asOf,
		Calendar: s.calendar,
		Quotas:   quotas,
	})
	s.metrics.ObserveAggregation(s.source.Name(), len(records))

	s.logger.Debug("aggregated deal snapshot",
		zap.String("source", s.source.Name()),
		zap.Int("records", len(records)),
		zap.Int("regions", len(result.RevenueProjection)),
		zap.String("fiscal_year", fiscalYear),
		zap.Duration("duration", time.Since(start)))

	return result, nil
}

// GetOverview returns the current-quarter summary as of the given date
func (s *DashboardService) GetOverview(ctx context.Context, asOf time.Time) (*domain.OverviewDTO, error) {
	asOf = s.ResolveAsOf(asOf)
	result, err := s.GetDashboard(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return Overview(result, s.calendar, asOf), nil
}

// GetAgentPerformance returns the per-owner rollup of a region.
// An empty region covers all regions.
func (s *DashboardService) GetAgentPerformance(ctx context.Context, region string) (*domain.AgentPerformanceDTO, error) {
	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	return AgentPerformance(records, region), nil
}

// FiscalCalendar describes the fiscal year containing asOf, or the current one
func (s *DashboardService) FiscalCalendar(asOf time.Time) *domain.FiscalCalendarDTO {
	return FiscalCalendar(s.calendar, s.ResolveAsOf(asOf))
}

func (s *DashboardService) loadRecords(ctx context.Context) ([]domain.DealRecord, error) {
	records, err := s.source.Load(ctx)
	if err != nil {
		s.metrics.SourceFailure(s.source.Name())
		s.logger.Error("failed to load deal snapshot",
			zap.String("source", s.source.Name()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to load deals: %w", err)
	}
	return records, nil
}

// loadQuotas never fails the dashboard; without quotas every region reports zero
func (s *DashboardService) loadQuotas(ctx context.Context, fiscalYear string) map[string]domain.Money {
	if s.quotas == nil {
		return nil
	}
	quotas, err := s.quotas.QuotasFor(ctx, fiscalYear)
	if err != nil {
		s.logger.Warn("failed to load quotas, continuing without them",
			zap.String("fiscal_year", fiscalYear),
			zap.Error(err))
		return nil
	}
	return quotas
}
