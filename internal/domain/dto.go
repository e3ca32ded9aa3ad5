package domain

import (
	"time"

	"github.com/google/uuid"
)

// DTOs for API responses

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// AgentStatsDTO is the rollup of one deal owner within a region
type AgentStatsDTO struct {
	Agent         string `json:"agent"`
	Value         Money  `json:"value"`
	Deals         int    `json:"deals"`
	ClosedValue   Money  `json:"closedValue"`
	PipelineValue Money  `json:"pipelineValue"`
}

// AgentPerformanceDTO lists the owners of a region by total value
type AgentPerformanceDTO struct {
	Region          string          `json:"region"`
	Agents          []AgentStatsDTO `json:"agents"`
	TotalValue      Money           `json:"totalValue"`
	TotalDeals      int             `json:"totalDeals"`
	AverageDealSize Money           `json:"averageDealSize"`
}

// QuarterRangeDTO is the first and last day of a fiscal quarter
type QuarterRangeDTO struct {
	Quarter string `json:"quarter"`
	Start   string `json:"start"` // YYYY-MM-DD
	End     string `json:"end"`   // YYYY-MM-DD
}

// RegionPipelineDTO is the pipeline of one region in a quarter
type RegionPipelineDTO struct {
	Region string `json:"region"`
	Value  Money  `json:"value"`
	Count  int    `json:"count"`
}

// StageTotalDTO is one stage of the funnel summed over all regions
type StageTotalDTO struct {
	StageName string `json:"stageName"`
	Value     Money  `json:"value"`
	Count     int    `json:"count"`
}

// OverviewDTO summarizes the current fiscal quarter across regions
type OverviewDTO struct {
	FiscalYearLabel    string              `json:"fiscalYearLabel"`
	CurrentQuarter     string              `json:"currentQuarter"`
	TotalPipelineValue Money               `json:"totalPipelineValue"`
	TotalOpportunities int                 `json:"totalOpportunities"`
	AverageDealSize    Money               `json:"averageDealSize"`
	WinRate            Money               `json:"winRate"` // percent of pipeline value already won
	Regions            []RegionPipelineDTO `json:"regions"`
	Funnel             []StageTotalDTO     `json:"funnel"`
	QuarterDates       []QuarterRangeDTO   `json:"quarterDates"`
}

// FiscalCalendarDTO describes the fiscal year containing a reference date
type FiscalCalendarDTO struct {
	AsOf           string            `json:"asOf"`
	StartMonth     int               `json:"startMonth"`
	FiscalYear     string            `json:"fiscalYear"`
	CurrentQuarter string            `json:"currentQuarter"`
	Quarters       []QuarterRangeDTO `json:"quarters"`
}

// QuotaDTO is a stored sales quota
type QuotaDTO struct {
	ID         uuid.UUID `json:"id"`
	Region     string    `json:"region"`
	FiscalYear string    `json:"fiscalYear"`
	Amount     Money     `json:"amount"`
	UpdatedAt  string    `json:"updatedAt"` // ISO 8601
}

// UpsertQuotaRequest sets the quota of the region named in the path
type UpsertQuotaRequest struct {
	FiscalYear string  `json:"fiscalYear" validate:"required,fiscalyear"`
	Amount     float64 `json:"amount" validate:"gte=0"`
}

// SnapshotDTO describes a stored deal snapshot
type SnapshotDTO struct {
	ID          uuid.UUID `json:"id"`
	Source      string    `json:"source"`
	RecordCount int       `json:"recordCount"`
	FetchedAt   string    `json:"fetchedAt"` // ISO 8601
	StorageKey  string    `json:"storageKey"`
}

// RefreshResultDTO reports the outcome of a snapshot refresh
type RefreshResultDTO struct {
	Snapshot        SnapshotDTO `json:"snapshot"`
	ArchiveKey      string      `json:"archiveKey"`
	PrunedArchives  int         `json:"prunedArchives"`
	PrunedSnapshots int         `json:"prunedSnapshots"`
	DurationMs      int64       `json:"durationMs"`
}

// HealthDTO is the body of the liveness and readiness endpoints
type HealthDTO struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks,omitempty"`
}

// HealthCheck is the result of one dependency check
type HealthCheck struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// ToSnapshotDTO converts a snapshot model for API responses
func ToSnapshotDTO(s *DealSnapshot) SnapshotDTO {
	return SnapshotDTO{
		ID:          s.ID,
		Source:      string(s.Source),
		RecordCount: s.RecordCount,
		FetchedAt:   s.FetchedAt.UTC().Format(time.RFC3339),
		StorageKey:  s.StorageKey,
	}
}

// ToQuotaDTO converts a quota model for API responses
func ToQuotaDTO(q *SalesQuota) QuotaDTO {
	return QuotaDTO{
		ID:         q.ID,
		Region:     q.Region,
		FiscalYear: q.FiscalYear,
		Amount:     MoneyFromFloat(q.Amount),
		UpdatedAt:  q.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
