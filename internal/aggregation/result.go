// Package aggregation turns a snapshot of CRM deal records into the
// aggregate views behind the sales dashboard.
//
// The engine is a pure function of its inputs. Aggregate builds a fresh
// skeleton for every call, so concurrent callers never share state.
package aggregation

import (
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/fiscal"
)

// Bucket accumulates the value and number of contributing deals
type Bucket struct {
	Value domain.Money `json:"value"`
	Count int          `json:"count"`
}

func (b *Bucket) add(amount domain.Money) {
	b.Value = b.Value.Plus(amount)
	b.Count++
}

// StageEntry is one stage of a region's funnel
type StageEntry struct {
	StageName string       `json:"stageName"`
	Value     domain.Money `json:"value"`
	Count     int          `json:"count"`
}

// BusinessSplit separates new business from business with existing customers
type BusinessSplit struct {
	New      Bucket `json:"new"`
	Existing Bucket `json:"existing"`
}

// Projection holds quota, achieved and probability-weighted revenue of a region
type Projection struct {
	Quota                     domain.Money `json:"quota"`
	Achieved                  domain.Money `json:"achieved"`
	ProjectedAtHighConfidence domain.Money `json:"projectedAtHighConfidence"`
	ProjectedAll              domain.Money `json:"projectedAll"`
}

// Closure is a deal likely to close soon
type Closure struct {
	Name              string       `json:"name"`
	Value             domain.Money `json:"value"`
	Stage             string       `json:"stage"`
	RecommendedAction string       `json:"recommendedAction"`
}

// TypeTotals holds the opportunity type buckets of a region
type TypeTotals struct {
	POC   Bucket `json:"POC"`
	MAP   Bucket `json:"MAP"`
	GenAI Bucket `json:"GenAI"`
}

func (t *TypeTotals) bucket(b TypeBucket) *Bucket {
	switch b {
	case TypePOC:
		return &t.POC
	case TypeMAP:
		return &t.MAP
	case TypeGenAI:
		return &t.GenAI
	}
	return nil
}

// Result is the full set of dashboard aggregates for one snapshot.
// Every region key present in one view is present in all of them.
type Result struct {
	RegionalPipeline      map[fiscal.Quarter]map[string]*Bucket `json:"regionalPipeline"`
	StageBreakdown        map[string][]StageEntry               `json:"stageBreakdown"`
	NewVsExistingSplit    map[string]*BusinessSplit             `json:"newVsExistingSplit"`
	RevenueProjection     map[string]*Projection                `json:"revenueProjection"`
	LikelyClosures        map[string][]Closure                  `json:"likelyClosures"`
	OpportunityTypeTotals map[string]*TypeTotals                `json:"opportunityTypeTotals"`
	FiscalYearLabel       string                                `json:"fiscalYearLabel"`
}

// Regions returns the region keys of the result in no particular order
func (r *Result) Regions() []string {
	regions := make([]string, 0, len(r.RevenueProjection))
	for region := range r.RevenueProjection {
		regions = append(regions, region)
	}
	return regions
}

// HasRegion reports whether region has been initialized
func (r *Result) HasRegion(region string) bool {
	_, ok := r.RevenueProjection[region]
	return ok
}
