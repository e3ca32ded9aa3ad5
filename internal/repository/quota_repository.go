package repository

import (
	"context"

	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuotaRepository struct {
	db *gorm.DB
}

func NewQuotaRepository(db *gorm.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// Upsert creates the quota or updates the amount of an existing region and fiscal year
func (r *QuotaRepository) Upsert(ctx context.Context, quota *domain.SalesQuota) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "region"}, {Name: "fiscal_year"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).
		Create(quota).Error
}

func (r *QuotaRepository) ListByFiscalYear(ctx context.Context, fiscalYear string) ([]domain.SalesQuota, error) {
	var quotas []domain.SalesQuota
	err := r.db.WithContext(ctx).
		Where("fiscal_year = ?", fiscalYear).
		Order("region ASC").
		Find(&quotas).Error
	return quotas, err
}

func (r *QuotaRepository) Get(ctx context.Context, region, fiscalYear string) (*domain.SalesQuota, error) {
	var quota domain.SalesQuota
	err := r.db.WithContext(ctx).
		Where("region = ? AND fiscal_year = ?", region, fiscalYear).
		First(&quota).Error
	if err != nil {
		return nil, err
	}
	return &quota, nil
}

// Delete removes a quota and reports whether one existed
func (r *QuotaRepository) Delete(ctx context.Context, region, fiscalYear string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("region = ? AND fiscal_year = ?", region, fiscalYear).
		Delete(&domain.SalesQuota{})
	return result.RowsAffected > 0, result.Error
}
