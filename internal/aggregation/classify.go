package aggregation

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/fiscal"
)

// TypeBucket is the opportunity type a deal is counted under
type TypeBucket string

const (
	TypePOC   TypeBucket = "POC"
	TypeMAP   TypeBucket = "MAP"
	TypeGenAI TypeBucket = "GenAI"
	TypeNone  TypeBucket = ""
)

// BusinessKind separates new business from existing-customer business
type BusinessKind string

const (
	BusinessNew      BusinessKind = "new"
	BusinessExisting BusinessKind = "existing"
)

// Recommended actions for likely closures
const (
	ActionFollowUpProposal    = "Follow up on proposal"
	ActionScheduleNegotiation = "Schedule negotiation meeting"
	ActionReview              = "Review and update"
)

var (
	likelyClosureThreshold  = decimal.NewFromInt(70)
	highConfidenceThreshold = decimal.NewFromInt(80)
)

// typeMatchOrder is checked in priority order; the first match wins
var typeMatchOrder = []struct {
	token  string
	bucket TypeBucket
}{
	{"POC", TypePOC},
	{"MAP", TypeMAP},
	{"GENAI", TypeGenAI},
}

// ClassifyQuarter returns the fiscal quarter of the deal's closing date
func ClassifyQuarter(cal fiscal.Calendar, rec domain.DealRecord) fiscal.Quarter {
	return cal.QuarterOfString(rec.ClosingDate)
}

// ClassifyType matches the deal type against POC, MAP and GenAI, ignoring case
func ClassifyType(dealType string) TypeBucket {
	if dealType == "" {
		return TypeNone
	}
	upper := strings.ToUpper(dealType)
	for _, m := range typeMatchOrder {
		if strings.Contains(upper, m.token) {
			return m.bucket
		}
	}
	return TypeNone
}

// ClassifyBusiness treats types mentioning "EN" or "Existing" as existing business.
// The match is case-sensitive; an empty type counts as new business.
func ClassifyBusiness(dealType string) BusinessKind {
	if strings.Contains(dealType, "EN") || strings.Contains(dealType, "Existing") {
		return BusinessExisting
	}
	return BusinessNew
}

// IsLikelyClosure reports deals with probability of at least 70 that are not closed yet
func IsLikelyClosure(rec domain.DealRecord) bool {
	return rec.Probability.GreaterThanOrEqual(likelyClosureThreshold) && !rec.IsClosed()
}

// IsHighConfidence reports deals with probability of at least 80
func IsHighConfidence(rec domain.DealRecord) bool {
	return rec.Probability.GreaterThanOrEqual(highConfidenceThreshold)
}

// RecommendAction picks the follow-up for a likely closure from its stage
func RecommendAction(stage string) string {
	lower := strings.ToLower(stage)
	switch {
	case strings.Contains(lower, "proposal"):
		return ActionFollowUpProposal
	case strings.Contains(lower, "negotiation"):
		return ActionScheduleNegotiation
	default:
		return ActionReview
	}
}
