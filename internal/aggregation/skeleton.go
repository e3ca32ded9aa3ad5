package aggregation

import (
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/fiscal"
)

// NewSkeleton builds an all-zero result covering every given region.
// Duplicate regions are ignored.
func NewSkeleton(regions []string) *Result {
	r := &Result{
		RegionalPipeline:      make(map[fiscal.Quarter]map[string]*Bucket, 4),
		StageBreakdown:        make(map[string][]StageEntry, len(regions)),
		NewVsExistingSplit:    make(map[string]*BusinessSplit, len(regions)),
		RevenueProjection:     make(map[string]*Projection, len(regions)),
		LikelyClosures:        make(map[string][]Closure, len(regions)),
		OpportunityTypeTotals: make(map[string]*TypeTotals, len(regions)),
	}
	for _, q := range fiscal.Quarters() {
		r.RegionalPipeline[q] = make(map[string]*Bucket, len(regions))
	}
	for _, region := range regions {
		r.ensureRegion(region)
	}
	return r
}

// ensureRegion adds zeroed entries for region to every view if it is missing
func (r *Result) ensureRegion(region string) {
	if r.HasRegion(region) {
		return
	}
	for _, q := range fiscal.Quarters() {
		r.RegionalPipeline[q][region] = &Bucket{Value: domain.ZeroMoney}
	}
	r.StageBreakdown[region] = []StageEntry{}
	r.NewVsExistingSplit[region] = &BusinessSplit{
		New:      Bucket{Value: domain.ZeroMoney},
		Existing: Bucket{Value: domain.ZeroMoney},
	}
	r.RevenueProjection[region] = &Projection{
		Quota:                     domain.ZeroMoney,
		Achieved:                  domain.ZeroMoney,
		ProjectedAtHighConfidence: domain.ZeroMoney,
		ProjectedAll:              domain.ZeroMoney,
	}
	r.LikelyClosures[region] = []Closure{}
	r.OpportunityTypeTotals[region] = &TypeTotals{
		POC:   Bucket{Value: domain.ZeroMoney},
		MAP:   Bucket{Value: domain.ZeroMoney},
		GenAI: Bucket{Value: domain.ZeroMoney},
	}
}

// ObservedRegions returns the distinct regions of records in first-seen order,
// using the "Unassigned" fallback for deals without a region
func ObservedRegions(records []domain.DealRecord) []string {
	seen := make(map[string]struct{})
	regions := make([]string, 0)
	for _, rec := range records {
		region := rec.RegionOrDefault()
		if _, ok := seen[region]; ok {
			continue
		}
		seen[region] = struct{}{}
		regions = append(regions, region)
	}
	return regions
}
