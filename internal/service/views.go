package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-dashboard-api/internal/aggregation"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/fiscal"
)

const dateLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

// AgentPerformance rolls up the deals of a region per owner, highest value first.
// An empty region covers every deal.
func AgentPerformance(records []domain.DealRecord, region string) *domain.AgentPerformanceDTO {
	byAgent := make(map[string]*domain.AgentStatsDTO)
	out := &domain.AgentPerformanceDTO{
		Region:          region,
		Agents:          []domain.AgentStatsDTO{},
		TotalValue:      domain.ZeroMoney,
		AverageDealSize: domain.ZeroMoney,
	}

	for _, rec := range records {
		if region != "" && rec.RegionOrDefault() != region {
			continue
		}
		amount := domain.NewMoney(rec.Amount)
		name := rec.OwnerOrDefault()

		stats, ok := byAgent[name]
		if !ok {
			stats = &domain.AgentStatsDTO{
				Agent:         name,
				Value:         domain.ZeroMoney,
				ClosedValue:   domain.ZeroMoney,
				PipelineValue: domain.ZeroMoney,
			}
			byAgent[name] = stats
		}
		stats.Value = stats.Value.Plus(amount)
		stats.Deals++
		if rec.IsClosedWon() {
			stats.ClosedValue = stats.ClosedValue.Plus(amount)
		}
		if !rec.IsClosed() {
			stats.PipelineValue = stats.PipelineValue.Plus(amount)
		}

		out.TotalValue = out.TotalValue.Plus(amount)
		out.TotalDeals++
	}

	for _, stats := range byAgent {
		out.Agents = append(out.Agents, *stats)
	}
	sort.Slice(out.Agents, func(i, j int) bool {
		a, b := out.Agents[i], out.Agents[j]
		if c := a.Value.Cmp(b.Value.Decimal); c != 0 {
			return c > 0
		}
		return a.Agent < b.Agent
	})

	out.AverageDealSize = average(out.TotalValue, out.TotalDeals)
	return out
}

// Overview summarizes the fiscal quarter containing asOf across all regions
func Overview(result *aggregation.Result, cal fiscal.Calendar, asOf time.Time) *domain.OverviewDTO {
	quarter := cal.QuarterOf(asOf)
	out := &domain.OverviewDTO{
		FiscalYearLabel:    cal.FiscalYearOf(asOf).Label(),
		CurrentQuarter:     string(quarter),
		TotalPipelineValue: domain.ZeroMoney,
		WinRate:            domain.ZeroMoney,
		Regions:            []domain.RegionPipelineDTO{},
		Funnel:             []domain.StageTotalDTO{},
		QuarterDates:       quarterRanges(cal, asOf),
	}

	regions := result.Regions()
	sort.Strings(regions)

	for _, region := range regions {
		bucket := result.RegionalPipeline[quarter][region]
		out.Regions = append(out.Regions, domain.RegionPipelineDTO{
			Region: region,
			Value:  bucket.Value,
			Count:  bucket.Count,
		})
		out.TotalPipelineValue = out.TotalPipelineValue.Plus(bucket.Value)
		out.TotalOpportunities += bucket.Count
	}
	out.AverageDealSize = average(out.TotalPipelineValue, out.TotalOpportunities)

	won := domain.ZeroMoney
	funnel := make(map[string]*domain.StageTotalDTO)
	for _, region := range regions {
		for _, stage := range result.StageBreakdown[region] {
			if stage.StageName == domain.ClosedWonStage {
				won = won.Plus(stage.Value)
			}
			total, ok := funnel[stage.StageName]
			if !ok {
				total = &domain.StageTotalDTO{StageName: stage.StageName, Value: domain.ZeroMoney}
				funnel[stage.StageName] = total
			}
			total.Value = total.Value.Plus(stage.Value)
			total.Count += stage.Count
		}
	}
	for _, total := range funnel {
		out.Funnel = append(out.Funnel, *total)
	}
	sort.Slice(out.Funnel, func(i, j int) bool {
		a, b := out.Funnel[i], out.Funnel[j]
		if c := a.Value.Cmp(b.Value.Decimal); c != 0 {
			return c > 0
		}
		return a.StageName < b.StageName
	})

	if out.TotalPipelineValue.IsPositive() {
		out.WinRate = domain.NewMoney(won.Mul(hundred).DivRound(out.TotalPipelineValue.Decimal, 1))
	}
	return out
}

// FiscalCalendar describes the fiscal year containing asOf
func FiscalCalendar(cal fiscal.Calendar, asOf time.Time) *domain.FiscalCalendarDTO {
	return &domain.FiscalCalendarDTO{
		AsOf:           asOf.Format(dateLayout),
		StartMonth:     int(cal.StartMonth()),
		FiscalYear:     cal.FiscalYearOf(asOf).Label(),
		CurrentQuarter: string(cal.QuarterOf(asOf)),
		Quarters:       quarterRanges(cal, asOf),
	}
}

func quarterRanges(cal fiscal.Calendar, asOf time.Time) []domain.QuarterRangeDTO {
	bounds := cal.QuarterBounds(asOf)
	ranges := make([]domain.QuarterRangeDTO, 0, len(bounds))
	for _, q := range fiscal.Quarters() {
		b := bounds[q]
		ranges = append(ranges, domain.QuarterRangeDTO{
			Quarter: string(q),
			Start:   b.Start.Format(dateLayout),
			End:     b.End.Format(dateLayout),
		})
	}
	return ranges
}

// average divides total by count, rounded to cents. Zero deals give zero.
func average(total domain.Money, count int) domain.Money {
	if count == 0 {
		return domain.ZeroMoney
	}
	return domain.NewMoney(total.DivRound(decimal.NewFromInt(int64(count)), 2))
}
