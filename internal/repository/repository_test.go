package repository_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/repository"
	"github.com/straye-as/sales-dashboard-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRepository_Latest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSnapshotRepository(db)
	ctx := context.Background()

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, source := range []domain.SnapshotSource{domain.SnapshotSourceZoho, domain.SnapshotSourceFile, domain.SnapshotSourceZoho} {
		require.NoError(t, repo.Create(ctx, &domain.DealSnapshot{
			Source:      source,
			RecordCount: i,
			FetchedAt:   base.Add(time.Duration(i) * time.Hour),
		}))
	}

	latest, err = repo.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.RecordCount)

	older, err := repo.ListOlderThan(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, older, 2)
	assert.Equal(t, 0, older[0].RecordCount)
	assert.Equal(t, 1, older[1].RecordCount)
}

func TestDealRecordRepository_RoundTripKeepsOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	snapshots := repository.NewSnapshotRepository(db)
	records := repository.NewDealRecordRepository(db)
	ctx := context.Background()

	snapshot := &domain.DealSnapshot{Source: domain.SnapshotSourceZoho, FetchedAt: time.Now().UTC()}
	require.NoError(t, snapshots.Create(ctx, snapshot))

	payloads := []json.RawMessage{
		json.RawMessage(`{"Deal_Name":"B","Amount":"200","Region":"EMEA"}`),
		json.RawMessage(`{"name":"A","amount":100,"region":"APAC"}`),
		json.RawMessage(`{"name":"C"}`),
	}
	require.NoError(t, records.ReplaceForSnapshot(ctx, snapshot.ID, payloads))

	loaded, err := records.ListBySnapshot(ctx, snapshot.ID)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "B", loaded[0].Name)
	assert.Equal(t, "200", loaded[0].Amount.String())
	assert.Equal(t, "A", loaded[1].Name)
	assert.Equal(t, "C", loaded[2].Name)

	require.NoError(t, records.ReplaceForSnapshot(ctx, snapshot.ID, payloads[:1]))
	count, err := records.CountBySnapshot(ctx, snapshot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, snapshots.Delete(ctx, snapshot.ID))
	count, err = records.CountBySnapshot(ctx, snapshot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestQuotaRepository_UpsertAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewQuotaRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.SalesQuota{Region: "EMEA", FiscalYear: "2024-2025", Amount: 1000}))
	require.NoError(t, repo.Upsert(ctx, &domain.SalesQuota{Region: "APAC", FiscalYear: "2024-2025", Amount: 500}))
	require.NoError(t, repo.Upsert(ctx, &domain.SalesQuota{Region: "EMEA", FiscalYear: "2025-2026", Amount: 9}))
	require.NoError(t, repo.Upsert(ctx, &domain.SalesQuota{Region: "EMEA", FiscalYear: "2024-2025", Amount: 1500}))

	quotas, err := repo.ListByFiscalYear(ctx, "2024-2025")
	require.NoError(t, err)
	require.Len(t, quotas, 2)
	assert.Equal(t, "APAC", quotas[0].Region)
	assert.Equal(t, "EMEA", quotas[1].Region)
	assert.Equal(t, 1500.0, quotas[1].Amount)

	deleted, err := repo.Delete(ctx, "EMEA", "2024-2025")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "EMEA", "2024-2025")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.Get(ctx, "EMEA", "2024-2025")
	assert.Error(t, err)

	quota, err := repo.Get(ctx, "EMEA", "2025-2026")
	require.NoError(t, err)
	assert.Equal(t, 9.0, quota.Amount)
}
