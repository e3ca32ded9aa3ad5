package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/fiscal"
	"github.com/straye-as/sales-dashboard-api/internal/metrics"
	"github.com/straye-as/sales-dashboard-api/internal/service"
	"github.com/straye-as/sales-dashboard-api/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	records []domain.DealRecord
	err     error
	calls   int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Load(context.Context) ([]domain.DealRecord, error) {
	f.calls++
	return f.records, f.err
}

type fakeQuotas struct {
	quotas    map[string]domain.Money
	err       error
	requested []string
}

func (f *fakeQuotas) QuotasFor(_ context.Context, fiscalYear string) (map[string]domain.Money, error) {
	f.requested = append(f.requested, fiscalYear)
	return f.quotas, f.err
}

func newDashboardService(src source.Source, quotas service.QuotaProvider) *service.DashboardService {
	return service.NewDashboardService(src, quotas, fiscal.DefaultCalendar(), service.FixedClock(asOf), metrics.New(), zap.NewNop())
}

func TestDashboardService_GetDashboard_InjectsQuotas(t *testing.T) {
	src := &fakeSource{records: decodeRecords(t, quarterDeals)}
	quotas := &fakeQuotas{quotas: map[string]domain.Money{
		"APAC":  domain.NewMoney(decimal.NewFromInt(1000)),
		"LATAM": domain.NewMoney(decimal.NewFromInt(500)),
	}}
	svc := newDashboardService(src, quotas)

	result, err := svc.GetDashboard(context.Background(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-2025"}, quotas.requested)
	assert.Equal(t, "2024-2025", result.FiscalYearLabel)
	assertMoney(t, "1000", result.RevenueProjection["APAC"].Quota)
	assertMoney(t, "0", result.RevenueProjection["EMEA"].Quota)
	require.True(t, result.HasRegion("LATAM"), "quota regions are part of the result")
	assertMoney(t, "500", result.RevenueProjection["LATAM"].Quota)
}

func TestDashboardService_GetDashboard_UsesAsOf(t *testing.T) {
	quotas := &fakeQuotas{}
	svc := newDashboardService(&fakeSource{}, quotas)

	result, err := svc.GetDashboard(context.Background(), time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2024-2025", result.FiscalYearLabel)
	assert.Equal(t, []string{"2024-2025"}, quotas.requested)

	result, err = svc.GetDashboard(context.Background(), time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-2026", result.FiscalYearLabel)
}

func TestDashboardService_GetDashboard_QuotaFailureIsNotFatal(t *testing.T) {
	src := &fakeSource{records: decodeRecords(t, quarterDeals)}
	svc := newDashboardService(src, &fakeQuotas{err: errors.New("db down")})

	result, err := svc.GetDashboard(context.Background(), time.Time{})
	require.NoError(t, err)
	assertMoney(t, "0", result.RevenueProjection["APAC"].Quota)
}

func TestDashboardService_GetDashboard_WithoutQuotaProvider(t *testing.T) {
	svc := newDashboardService(&fakeSource{records: decodeRecords(t, quarterDeals)}, nil)

	result, err := svc.GetDashboard(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.True(t, result.HasRegion("APAC"))
}

func TestDashboardService_SourceFailure(t *testing.T) {
	src := &fakeSource{err: fmt.Errorf("%w: zoho: timeout", source.ErrSourceUnavailable)}
	svc := newDashboardService(src, &fakeQuotas{})
	ctx := context.Background()

	_, err := svc.GetDashboard(ctx, time.Time{})
	assert.True(t, errors.Is(err, source.ErrSourceUnavailable))

	_, err = svc.GetOverview(ctx, time.Time{})
	assert.True(t, errors.Is(err, source.ErrSourceUnavailable))

	_, err = svc.GetAgentPerformance(ctx, "APAC")
	assert.True(t, errors.Is(err, source.ErrSourceUnavailable))
}

func TestDashboardService_GetOverview(t *testing.T) {
	svc := newDashboardService(&fakeSource{records: decodeRecords(t, quarterDeals)}, nil)

	overview, err := svc.GetOverview(context.Background(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "Q1", overview.CurrentQuarter)
	assertMoney(t, "600", overview.TotalPipelineValue)
}

func TestDashboardService_GetAgentPerformance(t *testing.T) {
	src := &fakeSource{records: decodeRecords(t, agentDeals)}
	svc := newDashboardService(src, nil)

	perf, err := svc.GetAgentPerformance(context.Background(), "EMEA")
	require.NoError(t, err)

	require.Len(t, perf.Agents, 1)
	assert.Equal(t, "Alice", perf.Agents[0].Agent)
	assert.Equal(t, 1, src.calls)
}

func TestDashboardService_FiscalCalendar(t *testing.T) {
	svc := newDashboardService(&fakeSource{}, nil)

	current := svc.FiscalCalendar(time.Time{})
	assert.Equal(t, "2024-06-01", current.AsOf)
	assert.Equal(t, "Q1", current.CurrentQuarter)

	other := svc.FiscalCalendar(time.Date(2024, time.December, 24, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Q3", other.CurrentQuarter)
}
