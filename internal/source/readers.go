package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
)

// ErrNoSnapshot is returned by the database source before the first refresh
var ErrNoSnapshot = errors.New("no deal snapshot stored yet")

// SnapshotFinder finds the latest stored snapshot
type SnapshotFinder interface {
	Latest(ctx context.Context) (*domain.DealSnapshot, error)
}

// RecordLister lists the records of a stored snapshot in order
type RecordLister interface {
	ListBySnapshot(ctx context.Context, snapshotID uuid.UUID) ([]domain.DealRecord, error)
}

// DealReader fetches all deals from an external system
type DealReader interface {
	GetDeals(ctx context.Context) ([]domain.DealRecord, error)
}

// DatabaseSource reads the latest snapshot stored by the refresh job
type DatabaseSource struct {
	snapshots SnapshotFinder
	records   RecordLister
}

func NewDatabaseSource(snapshots SnapshotFinder, records RecordLister) *DatabaseSource {
	return &DatabaseSource{snapshots: snapshots, records: records}
}

func (s *DatabaseSource) Name() string { return "database" }

func (s *DatabaseSource) Load(ctx context.Context) ([]domain.DealRecord, error) {
	snapshot, err := s.snapshots.Latest(ctx)
	if err != nil {
		return nil, unavailable(s.Name(), fmt.Errorf("failed to find latest snapshot: %w", err))
	}
	if snapshot == nil {
		return nil, unavailable(s.Name(), ErrNoSnapshot)
	}

	records, err := s.records.ListBySnapshot(ctx, snapshot.ID)
	if err != nil {
		return nil, unavailable(s.Name(), err)
	}
	if len(records) != snapshot.RecordCount {
		return nil, unavailable(s.Name(), fmt.Errorf("snapshot %s is incomplete: %d of %d records", snapshot.ID, len(records), snapshot.RecordCount))
	}
	return records, nil
}

// ReaderSource loads deals live from a DealReader such as the Zoho or data warehouse client
type ReaderSource struct {
	name   string
	reader DealReader
}

func NewReaderSource(name string, reader DealReader) *ReaderSource {
	return &ReaderSource{name: name, reader: reader}
}

func (s *ReaderSource) Name() string { return s.name }

func (s *ReaderSource) Load(ctx context.Context) ([]domain.DealRecord, error) {
	records, err := s.reader.GetDeals(ctx)
	if err != nil {
		return nil, unavailable(s.name, err)
	}
	return records, nil
}
