package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an ID in Go so the schema works on both PostgreSQL and SQLite
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// SnapshotSource identifies where a deal snapshot was fetched from
type SnapshotSource string

const (
	SnapshotSourceZoho          SnapshotSource = "zoho"
	SnapshotSourceDataWarehouse SnapshotSource = "datawarehouse"
	SnapshotSourceFile          SnapshotSource = "file"
)

// IsValid checks if the snapshot source is a known value
func (s SnapshotSource) IsValid() bool {
	switch s {
	case SnapshotSourceZoho, SnapshotSourceDataWarehouse, SnapshotSourceFile:
		return true
	}
	return false
}

// DealSnapshot records one complete fetch of deal records
type DealSnapshot struct {
	BaseModel
	Source      SnapshotSource `gorm:"type:varchar(50);not null"`
	RecordCount int            `gorm:"type:int;not null;default:0;column:record_count"`
	FetchedAt   time.Time      `gorm:"not null;index;column:fetched_at"`
	StorageKey  string         `gorm:"type:varchar(500);column:storage_key"`
}

// TableName overrides the default table name to match the migration
func (DealSnapshot) TableName() string {
	return "deal_snapshots"
}

// StoredDealRecord is one deal of a snapshot, kept as the raw JSON it arrived as
type StoredDealRecord struct {
	BaseModel
	SnapshotID uuid.UUID `gorm:"type:uuid;not null;index:idx_deal_records_snapshot_position,priority:1;column:snapshot_id"`
	Position   int       `gorm:"type:int;not null;index:idx_deal_records_snapshot_position,priority:2"`
	Payload    string    `gorm:"type:text;not null"`
}

// TableName overrides the default table name to match the migration
func (StoredDealRecord) TableName() string {
	return "deal_records"
}

// SalesQuota is the externally supplied revenue target of a region for one fiscal year
type SalesQuota struct {
	BaseModel
	Region     string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_sales_quotas_region_year,priority:1"`
	FiscalYear string  `gorm:"type:varchar(9);not null;uniqueIndex:idx_sales_quotas_region_year,priority:2;column:fiscal_year"`
	Amount     float64 `gorm:"type:decimal(15,2);not null;default:0"`
}

// TableName overrides the default table name to match the migration
func (SalesQuota) TableName() string {
	return "sales_quotas"
}
