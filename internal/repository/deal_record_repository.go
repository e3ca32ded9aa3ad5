package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"gorm.io/gorm"
)

const dealRecordBatchSize = 500

type DealRecordRepository struct {
	db *gorm.DB
}

func NewDealRecordRepository(db *gorm.DB) *DealRecordRepository {
	return &DealRecordRepository{db: db}
}

// ReplaceForSnapshot stores the raw payloads of a snapshot in input order,
// replacing any records stored for it before
func (r *DealRecordRepository) ReplaceForSnapshot(ctx context.Context, snapshotID uuid.UUID, payloads []json.RawMessage) error {
	rows := make([]domain.StoredDealRecord, len(payloads))
	for i, payload := range payloads {
		rows[i] = domain.StoredDealRecord{
			SnapshotID: snapshotID,
			Position:   i,
			Payload:    string(payload),
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snapshot_id = ?", snapshotID).Delete(&domain.StoredDealRecord{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, dealRecordBatchSize).Error
	})
}

// ListBySnapshot decodes the records of a snapshot in their original order
func (r *DealRecordRepository) ListBySnapshot(ctx context.Context, snapshotID uuid.UUID) ([]domain.DealRecord, error) {
	var rows []domain.StoredDealRecord
	err := r.db.WithContext(ctx).
		Where("snapshot_id = ?", snapshotID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]domain.DealRecord, len(rows))
	for i, row := range rows {
		if err := json.Unmarshal([]byte(row.Payload), &records[i]); err != nil {
			return nil, fmt.Errorf("failed to decode deal record %d: %w", row.Position, err)
		}
	}
	return records, nil
}

// CountBySnapshot returns the number of records stored for a snapshot
func (r *DealRecordRepository) CountBySnapshot(ctx context.Context, snapshotID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.StoredDealRecord{}).
		Where("snapshot_id = ?", snapshotID).
		Count(&count).Error
	return count, err
}
