package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/metrics"
	"github.com/straye-as/sales-dashboard-api/internal/repository"
	"github.com/straye-as/sales-dashboard-api/internal/source"
	"github.com/straye-as/sales-dashboard-api/internal/storage"
	"go.uber.org/zap"
)

const (
	archivePrefix    = "archive/"
	archiveKeyLayout = "20060102T150405Z"
	jsonContentType  = "application/json"
)

// PayloadFetcher fetches a complete set of raw deal payloads from an upstream system
type PayloadFetcher interface {
	FetchDealPayloads(ctx context.Context) ([]json.RawMessage, error)
}

// RecordFetcherFunc adapts a reader of decoded records, such as the data warehouse client
type RecordFetcherFunc func(ctx context.Context) ([]domain.DealRecord, error)

// FetchDealPayloads encodes each record as a payload the snapshot decoder accepts
func (f RecordFetcherFunc) FetchDealPayloads(ctx context.Context) ([]json.RawMessage, error) {
	records, err := f(ctx)
	if err != nil {
		return nil, err
	}
	payloads := make([]json.RawMessage, len(records))
	for i, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to encode deal %d: %w", i, err)
		}
		payloads[i] = b
	}
	return payloads, nil
}

// RefreshOptions configures where snapshots are written and how long they are kept
type RefreshOptions struct {
	Source      domain.SnapshotSource
	SnapshotKey string
	// Retention removes archives and snapshot rows older than this. Zero keeps everything.
	Retention time.Duration
}

// RefreshService replaces the current deal snapshot with a fresh upstream fetch.
// Only one refresh runs at a time.
type RefreshService struct {
	fetcher      PayloadFetcher
	store        storage.Storage
	snapshotRepo *repository.SnapshotRepository
	recordRepo   *repository.DealRecordRepository
	opts         RefreshOptions
	clock        Clock
	metrics      *metrics.Metrics
	logger       *zap.Logger
	mu           sync.Mutex
}

func NewRefreshService(
	fetcher PayloadFetcher,
	store storage.Storage,
	snapshotRepo *repository.SnapshotRepository,
	recordRepo *repository.DealRecordRepository,
	opts RefreshOptions,
	clock Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RefreshService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &RefreshService{
		fetcher:      fetcher,
		store:        store,
		snapshotRepo: snapshotRepo,
		recordRepo:   recordRepo,
		opts:         opts,
		clock:        clock,
		metrics:      m,
		logger:       logger,
	}
}

// Refresh fetches every deal, archives the snapshot, records it in the database,
// replaces the current snapshot object and prunes expired archives.
// A failure at any step leaves the previous snapshot current in both storage
// and the database.
func (s *RefreshService) Refresh(ctx context.Context) (*domain.RefreshResultDTO, error) {
	if !s.mu.TryLock() {
		s.metrics.RefreshOutcome("skipped", s.clock.Now())
		return nil, ErrRefreshInProgress
	}
	defer s.mu.Unlock()

	start := time.Now()
	result, err := s.refresh(ctx)
	if err != nil {
		s.metrics.RefreshOutcome("failure", s.clock.Now())
		s.logger.Error("deal snapshot refresh failed",
			zap.String("source", string(s.opts.Source)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	result.DurationMs = time.Since(start).Milliseconds()
	s.metrics.RefreshOutcome("success", s.clock.Now())
	s.logger.Info("deal snapshot refreshed",
		zap.String("source", string(s.opts.Source)),
		zap.Stringer("snapshot_id", result.Snapshot.ID),
		zap.Int("records", result.Snapshot.RecordCount),
		zap.String("archive_key", result.ArchiveKey),
		zap.Int("pruned_archives", result.PrunedArchives),
		zap.Int("pruned_snapshots", result.PrunedSnapshots),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

func (s *RefreshService) refresh(ctx context.Context) (*domain.RefreshResultDTO, error) {
	payloads, err := s.fetcher.FetchDealPayloads(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", source.ErrSourceUnavailable, s.opts.Source, err)
	}
	if payloads == nil {
		payloads = []json.RawMessage{}
	}

	body, err := json.Marshal(payloads)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	now := s.clock.Now().UTC()
	archiveKey := ArchiveKey(now)

	// The current object is replaced last, so a failure at any step leaves
	// the file and database sources on the same previous snapshot.
	if _, err := s.store.Put(ctx, archiveKey, jsonContentType, bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("failed to write snapshot archive: %w", err)
	}

	snapshot := &domain.DealSnapshot{
		Source:      s.opts.Source,
		RecordCount: len(payloads),
		FetchedAt:   now,
		StorageKey:  archiveKey,
	}
	if err := s.snapshotRepo.Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to record snapshot: %w", err)
	}
	if err := s.recordRepo.ReplaceForSnapshot(ctx, snapshot.ID, payloads); err != nil {
		s.discardSnapshot(ctx, snapshot)
		return nil, fmt.Errorf("failed to store deal records: %w", err)
	}

	if _, err := s.store.Put(ctx, s.opts.SnapshotKey, jsonContentType, bytes.NewReader(body)); err != nil {
		s.discardSnapshot(ctx, snapshot)
		return nil, fmt.Errorf("failed to write current snapshot: %w", err)
	}

	result := &domain.RefreshResultDTO{
		Snapshot:   domain.ToSnapshotDTO(snapshot),
		ArchiveKey: archiveKey,
	}
	if s.opts.Retention > 0 {
		cutoff := now.Add(-s.opts.Retention)
		result.PrunedArchives = s.pruneArchives(ctx, cutoff)
		result.PrunedSnapshots = s.pruneSnapshots(ctx, cutoff)
	}
	return result, nil
}

// discardSnapshot removes a snapshot row and its records after a later step failed.
// The archive object stays; it is an exact copy of what was fetched.
func (s *RefreshService) discardSnapshot(ctx context.Context, snapshot *domain.DealSnapshot) {
	if err := s.snapshotRepo.Delete(context.WithoutCancel(ctx), snapshot.ID); err != nil {
		s.logger.Warn("failed to remove incomplete snapshot",
			zap.Stringer("snapshot_id", snapshot.ID),
			zap.Error(err))
	}
}

// pruneArchives deletes archive objects older than cutoff. Failures are logged and skipped.
func (s *RefreshService) pruneArchives(ctx context.Context, cutoff time.Time) int {
	objects, err := s.store.List(ctx, archivePrefix)
	if err != nil {
		s.logger.Warn("failed to list snapshot archives", zap.Error(err))
		return 0
	}

	pruned := 0
	for _, obj := range objects {
		created, ok := ArchiveTime(obj.Key)
		if !ok {
			created = obj.ModifiedAt
		}
		if !created.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			s.logger.Warn("failed to delete snapshot archive",
				zap.String("key", obj.Key),
				zap.Error(err))
			continue
		}
		pruned++
	}
	return pruned
}

// pruneSnapshots deletes snapshot rows older than cutoff. Failures are logged and skipped.
func (s *RefreshService) pruneSnapshots(ctx context.Context, cutoff time.Time) int {
	snapshots, err := s.snapshotRepo.ListOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Warn("failed to list expired snapshots", zap.Error(err))
		return 0
	}

	pruned := 0
	for _, snapshot := range snapshots {
		if err := s.snapshotRepo.Delete(ctx, snapshot.ID); err != nil {
			s.logger.Warn("failed to delete expired snapshot",
				zap.Stringer("snapshot_id", snapshot.ID),
				zap.Error(err))
			continue
		}
		pruned++
	}
	return pruned
}

// LatestSnapshot returns the most recent snapshot, or nil when none was recorded
func (s *RefreshService) LatestSnapshot(ctx context.Context) (*domain.DealSnapshot, error) {
	snapshot, err := s.snapshotRepo.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return snapshot, nil
}

// IsStale reports whether no snapshot exists or the latest one is older than maxAge
func (s *RefreshService) IsStale(ctx context.Context, maxAge time.Duration) (bool, error) {
	latest, err := s.LatestSnapshot(ctx)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return true, nil
	}
	return s.clock.Now().Sub(latest.FetchedAt) > maxAge, nil
}

// ArchiveKey names the archive object of a snapshot fetched at t
func ArchiveKey(t time.Time) string {
	return archivePrefix + "deals-" + t.UTC().Format(archiveKeyLayout) + ".json"
}

// ArchiveTime recovers the fetch time from an archive key
func ArchiveTime(key string) (time.Time, bool) {
	name := strings.TrimPrefix(key, archivePrefix)
	if !strings.HasPrefix(name, "deals-") || !strings.HasSuffix(name, ".json") {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, "deals-"), ".json")
	t, err := time.Parse(archiveKeyLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
