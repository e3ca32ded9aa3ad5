package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"gorm.io/gorm"
)

type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Create(ctx context.Context, snapshot *domain.DealSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

// Latest returns the most recently fetched snapshot, or nil when none exists
func (r *SnapshotRepository) Latest(ctx context.Context) (*domain.DealSnapshot, error) {
	var snapshot domain.DealSnapshot
	err := r.db.WithContext(ctx).
		Order("fetched_at DESC").
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListOlderThan returns snapshots fetched before cutoff, oldest first
func (r *SnapshotRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]domain.DealSnapshot, error) {
	var snapshots []domain.DealSnapshot
	err := r.db.WithContext(ctx).
		Where("fetched_at < ?", cutoff).
		Order("fetched_at ASC").
		Find(&snapshots).Error
	return snapshots, err
}

// Delete removes a snapshot together with its records
func (r *SnapshotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snapshot_id = ?", id).Delete(&domain.StoredDealRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.DealSnapshot{}, "id = ?", id).Error
	})
}
