package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/fiscal"
	"github.com/straye-as/sales-dashboard-api/internal/repository"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
	"gorm.io/gorm"
)

type QuotaService struct {
	quotaRepo *repository.QuotaRepository
	logger    *zap.Logger
}

func NewQuotaService(quotaRepo *repository.QuotaRepository, logger *zap.Logger) *QuotaService {
	return &QuotaService{
		quotaRepo: quotaRepo,
		logger:    logger,
	}
}

// List returns the quotas of a fiscal year ordered by region
func (s *QuotaService) List(ctx context.Context, fiscalYear string) ([]domain.QuotaDTO, error) {
	if _, err := fiscal.ParseLabel(fiscalYear); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	quotas, err := s.quotaRepo.ListByFiscalYear(ctx, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotas: %w", err)
	}

	dtos := make([]domain.QuotaDTO, len(quotas))
	for i := range quotas {
		dtos[i] = domain.ToQuotaDTO(&quotas[i])
	}
	return dtos, nil
}

// QuotasFor returns the quota per region for one fiscal year
func (s *QuotaService) QuotasFor(ctx context.Context, fiscalYear string) (map[string]domain.Money, error) {
	quotas, err := s.quotaRepo.ListByFiscalYear(ctx, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotas: %w", err)
	}

	byRegion := make(map[string]domain.Money, len(quotas))
	for _, q := range quotas {
		byRegion[q.Region] = domain.MoneyFromFloat(q.Amount)
	}
	return byRegion, nil
}

// Upsert sets the quota of a region for the fiscal year in the request
func (s *QuotaService) Upsert(ctx context.Context, region string, req *domain.UpsertQuotaRequest) (*domain.QuotaDTO, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, fmt.Errorf("%w: region is required", ErrInvalidInput)
	}
	if _, err := fiscal.ParseLabel(req.FiscalYear); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	quota := &domain.SalesQuota{
		Region:     region,
		FiscalYear: req.FiscalYear,
		Amount:     req.Amount,
	}
	if err := s.quotaRepo.Upsert(ctx, quota); err != nil {
		return nil, fmt.Errorf("failed to save quota: %w", err)
	}

	stored, err := s.quotaRepo.Get(ctx, region, req.FiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to reload quota: %w", err)
	}

	s.logger.Info("quota saved",
		zap.String("region", region),
		zap.String("fiscal_year", req.FiscalYear),
		zap.Float64("amount", req.Amount))

	dto := domain.ToQuotaDTO(stored)
	return &dto, nil
}

// Delete removes the quota of a region for one fiscal year
func (s *QuotaService) Delete(ctx context.Context, region, fiscalYear string) error {
	if _, err := fiscal.ParseLabel(fiscalYear); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	deleted, err := s.quotaRepo.Delete(ctx, region, fiscalYear)
	if err != nil {
		return fmt.Errorf("failed to delete quota: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}

	s.logger.Info("quota deleted",
		zap.String("region", region),
		zap.String("fiscal_year", fiscalYear))
	return nil
}

// Get returns the quota of a region for one fiscal year
func (s *QuotaService) Get(ctx context.Context, region, fiscalYear string) (*domain.QuotaDTO, error) {
	quota, err := s.quotaRepo.Get(ctx, region, fiscalYear)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quota: %w", err)
	}
	dto := domain.ToQuotaDTO(quota)
	return &dto, nil
}

// quotaSeed maps fiscal year labels to the quota per region:
//
//	2024-2025:
//	  APAC: 1500000
//	  EMEA: 2000000
type quotaSeed map[string]map[string]float64

// ParseQuotaSeed decodes and validates a YAML quota seed
func ParseQuotaSeed(data []byte) ([]domain.SalesQuota, error) {
	var seed quotaSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse quota seed: %v", ErrInvalidInput, err)
	}

	var quotas []domain.SalesQuota
	for fiscalYear, regions := range seed {
		if _, err := fiscal.ParseLabel(fiscalYear); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		for region, amount := range regions {
			if strings.TrimSpace(region) == "" || amount < 0 {
				return nil, fmt.Errorf("%w: invalid quota for %q in %s", ErrInvalidInput, region, fiscalYear)
			}
			quotas = append(quotas, domain.SalesQuota{
				Region:     region,
				FiscalYear: fiscalYear,
				Amount:     amount,
			})
		}
	}

	sort.Slice(quotas, func(i, j int) bool {
		if quotas[i].FiscalYear != quotas[j].FiscalYear {
			return quotas[i].FiscalYear < quotas[j].FiscalYear
		}
		return quotas[i].Region < quotas[j].Region
	})
	return quotas, nil
}

// SeedFromFile upserts every quota of a YAML seed file and returns how many were written
func (s *QuotaService) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read quota seed: %w", err)
	}

	quotas, err := ParseQuotaSeed(data)
	if err != nil {
		return 0, err
	}

	for i := range quotas {
		if err := s.quotaRepo.Upsert(ctx, &quotas[i]); err != nil {
			return i, fmt.Errorf("failed to seed quota %s/%s: %w", quotas[i].FiscalYear, quotas[i].Region, err)
		}
	}

	s.logger.Info("seeded quotas",
		zap.String("path", path),
		zap.Int("count", len(quotas)))
	return len(quotas), nil
}
