package aggregation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-dashboard-api/internal/aggregation"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassifyType(t *testing.T) {
	tests := []struct {
		dealType string
		want     aggregation.TypeBucket
	}{
		{"POC", aggregation.TypePOC},
		{"poc - pilot", aggregation.TypePOC},
		{"MAP", aggregation.TypeMAP},
		{"Migration Acceleration (map)", aggregation.TypeMAP},
		{"GenAI", aggregation.TypeGenAI},
		{"genai workshop", aggregation.TypeGenAI},
		{"POC MAP", aggregation.TypePOC},
		{"MAP GenAI", aggregation.TypeMAP},
		{"Existing Business", aggregation.TypeNone},
		{"", aggregation.TypeNone},
	}

	for _, tt := range tests {
		t.Run(tt.dealType, func(t *testing.T) {
			assert.Equal(t, tt.want, aggregation.ClassifyType(tt.dealType))
		})
	}
}

func TestClassifyBusiness(t *testing.T) {
	tests := []struct {
		dealType string
		want     aggregation.BusinessKind
	}{
		{"EN", aggregation.BusinessExisting},
		{"EN - Renewal", aggregation.BusinessExisting},
		{"Existing Business", aggregation.BusinessExisting},
		{"OPEN", aggregation.BusinessExisting},
		{"existing business", aggregation.BusinessNew},
		{"en", aggregation.BusinessNew},
		{"NN", aggregation.BusinessNew},
		{"New Business", aggregation.BusinessNew},
		{"", aggregation.BusinessNew},
	}

	for _, tt := range tests {
		t.Run(tt.dealType, func(t *testing.T) {
			assert.Equal(t, tt.want, aggregation.ClassifyBusiness(tt.dealType))
		})
	}
}

func TestIsLikelyClosure(t *testing.T) {
	tests := []struct {
		name        string
		stage       string
		probability string
		want        bool
	}{
		{"exactly seventy", "Negotiation", "70", true},
		{"just below", "Negotiation", "69.9", false},
		{"closed won excluded", "Closed Won", "100", false},
		{"closed lost excluded", "closed lost", "90", false},
		{"no stage", "", "75", true},
		{"zero probability", "Proposal", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := domain.DealRecord{Stage: tt.stage, Probability: decimal.RequireFromString(tt.probability)}
			assert.Equal(t, tt.want, aggregation.IsLikelyClosure(rec))
		})
	}
}

func TestIsHighConfidence(t *testing.T) {
	assert.True(t, aggregation.IsHighConfidence(domain.DealRecord{Probability: decimal.NewFromInt(80)}))
	assert.True(t, aggregation.IsHighConfidence(domain.DealRecord{Probability: decimal.NewFromInt(100)}))
	assert.False(t, aggregation.IsHighConfidence(domain.DealRecord{Probability: decimal.RequireFromString("79.99")}))
	assert.False(t, aggregation.IsHighConfidence(domain.DealRecord{}))
}

func TestRecommendAction(t *testing.T) {
	tests := []struct {
		stage string
		want  string
	}{
		{"Proposal", aggregation.ActionFollowUpProposal},
		{"Proposal/Price Quote", aggregation.ActionFollowUpProposal},
		{"proposal negotiation", aggregation.ActionFollowUpProposal},
		{"Negotiation/Review", aggregation.ActionScheduleNegotiation},
		{"Value Proposition", aggregation.ActionReview},
		{"Qualification", aggregation.ActionReview},
		{"", aggregation.ActionReview},
	}

	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			assert.Equal(t, tt.want, aggregation.RecommendAction(tt.stage))
		})
	}
}

func TestNewSkeleton(t *testing.T) {
	r := aggregation.NewSkeleton([]string{"APAC", "EMEA", "APAC"})

	assert.ElementsMatch(t, []string{"APAC", "EMEA"}, r.Regions())
	assertSymmetricRegions(t, r)
	assert.True(t, r.HasRegion("EMEA"))
	assert.False(t, r.HasRegion("Americas"))
	assert.Equal(t, 0, r.RegionalPipeline["Q3"]["EMEA"].Count)
	assert.NotNil(t, r.StageBreakdown["APAC"])
	assert.NotNil(t, r.LikelyClosures["APAC"])
}

func TestObservedRegions(t *testing.T) {
	records := []domain.DealRecord{
		{Region: "EMEA"},
		{},
		{Region: "APAC"},
		{Region: "EMEA"},
	}

	assert.Equal(t, []string{"EMEA", domain.UnassignedRegion, "APAC"}, aggregation.ObservedRegions(records))
	assert.Empty(t, aggregation.ObservedRegions(nil))
}
