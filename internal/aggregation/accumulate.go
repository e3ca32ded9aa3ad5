package aggregation

import (
	"time"

	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/fiscal"
)

// Options carries the inputs of a pass that do not come from deal records
type Options struct {
	// AsOf determines the fiscal year label. Zero means time.Now().
	AsOf time.Time
	// Calendar resolves closing dates to quarters. The zero value starts in April.
	Calendar fiscal.Calendar
	// Quotas holds the externally supplied quota per region
	Quotas map[string]domain.Money
}

// Accumulator folds deal records into a pre-initialized result
type Accumulator struct {
	cal    fiscal.Calendar
	result *Result
}

// NewAccumulator accumulates into result, which is usually a fresh skeleton
func NewAccumulator(cal fiscal.Calendar, result *Result) *Accumulator {
	return &Accumulator{cal: cal, result: result}
}

// Result returns the result being accumulated into
func (a *Accumulator) Result() *Result {
	return a.result
}

// Add accumulates one deal. Missing or malformed fields fall back to their
// defaults; a record is never rejected.
func (a *Accumulator) Add(rec domain.DealRecord) {
	r := a.result

	amount := domain.NewMoney(rec.Amount)
	weighted := domain.NewMoney(rec.WeightedAmount())
	region := rec.RegionOrDefault()
	r.ensureRegion(region)

	if q := ClassifyQuarter(a.cal, rec); q != fiscal.NoQuarter {
		r.RegionalPipeline[q][region].add(amount)
	}

	if rec.HasStage() {
		r.StageBreakdown[region] = addStage(r.StageBreakdown[region], rec.Stage, amount)
	}

	split := r.NewVsExistingSplit[region]
	if ClassifyBusiness(rec.DealType) == BusinessExisting {
		split.Existing.add(amount)
	} else {
		split.New.add(amount)
	}

	projection := r.RevenueProjection[region]
	if rec.IsClosedWon() {
		projection.Achieved = projection.Achieved.Plus(amount)
	}
	if IsHighConfidence(rec) {
		projection.ProjectedAtHighConfidence = projection.ProjectedAtHighConfidence.Plus(weighted)
	}
	projection.ProjectedAll = projection.ProjectedAll.Plus(weighted)

	if IsLikelyClosure(rec) {
		r.LikelyClosures[region] = append(r.LikelyClosures[region], Closure{
			Name:              rec.Name,
			Value:             amount,
			Stage:             rec.Stage,
			RecommendedAction: RecommendAction(rec.Stage),
		})
	}

	if b := r.OpportunityTypeTotals[region].bucket(ClassifyType(rec.DealType)); b != nil {
		b.add(amount)
	}
}

// addStage finds the stage entry or appends a new one, keeping first-seen order
func addStage(stages []StageEntry, stage string, amount domain.Money) []StageEntry {
	for i := range stages {
		if stages[i].StageName == stage {
			stages[i].Value = stages[i].Value.Plus(amount)
			stages[i].Count++
			return stages
		}
	}
	return append(stages, StageEntry{StageName: stage, Value: amount, Count: 1})
}

// Aggregate builds the dashboard aggregates for a full snapshot of deals.
// Quota regions without deals are included so they are never missing from the views.
func Aggregate(records []domain.DealRecord, opts Options) *Result {
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	regions := ObservedRegions(records)
	for region := range opts.Quotas {
		regions = append(regions, region)
	}

	acc := NewAccumulator(opts.Calendar, NewSkeleton(regions))
	for _, rec := range records {
		acc.Add(rec)
	}

	result := acc.Result()
	for region, quota := range opts.Quotas {
		result.RevenueProjection[region].Quota = quota
	}
	result.FiscalYearLabel = opts.Calendar.FiscalYearOf(asOf).Label()
	return result
}
