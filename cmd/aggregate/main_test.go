package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const snapshot = `{"data": [
	{"Deal_Name": "A", "Amount": 100, "Region": "APAC", "Stage": "Proposal", "Closing_Date": "2024-05-10"},
	{"Deal_Name": "B", "Amount": 300, "Region": "APAC", "Stage": "Closed Won", "Closing_Date": "2024-06-15"}
]}`

const truncated = `[{"Deal_Name": "A", "Amount": 100, "Region": "APAC", "Closing_Date": "2024-05-10"},
	{"Deal_Name": "B", "Amount": 300, "Reg`

type output struct {
	FiscalYearLabel   string                                    `json:"fiscalYearLabel"`
	RegionalPipeline  map[string]map[string]struct{ Count int } `json:"regionalPipeline"`
	RevenueProjection map[string]struct {
		Quota    float64 `json:"quota"`
		Achieved float64 `json:"achieved"`
	} `json:"revenueProjection"`
}

func execute(t *testing.T, stdin string, args ...string) (output, error) {
	t.Helper()
	cmd := newCommand()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetArgs(args)

	var result output
	if err := cmd.Execute(); err != nil {
		return result, err
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result), out.String())
	return result, nil
}

func TestAggregate_Stdin(t *testing.T) {
	result, err := execute(t, snapshot, "--as-of", "2024-06-01")
	require.NoError(t, err)

	assert.Equal(t, "2024-2025", result.FiscalYearLabel)
	assert.Equal(t, 2, result.RegionalPipeline["Q1"]["APAC"].Count)
	assert.Equal(t, 300.0, result.RevenueProjection["APAC"].Achieved)
}

func TestAggregate_FileWithQuotasAndFiscalStart(t *testing.T) {
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "current-data.json")
	require.NoError(t, os.WriteFile(snapshotPath, []byte(snapshot), 0o644))
	quotaPath := filepath.Join(dir, "quotas.yaml")
	require.NoError(t, os.WriteFile(quotaPath, []byte("2024-2025:\n  APAC: 1000\n  EMEA: 500\n2023-2024:\n  APAC: 1\n"), 0o644))

	// January start: June 2024 falls in Q2 of fiscal year 2024-2025
	result, err := execute(t, "", "--as-of", "2024-06-01", "--fiscal-start", "1", "--quotas", quotaPath, snapshotPath)
	require.NoError(t, err)

	assert.Equal(t, "2024-2025", result.FiscalYearLabel)
	assert.Equal(t, 2, result.RegionalPipeline["Q2"]["APAC"].Count)
	assert.Equal(t, 1000.0, result.RevenueProjection["APAC"].Quota)
	assert.Equal(t, 500.0, result.RevenueProjection["EMEA"].Quota, "quota regions appear without deals")
}

func TestAggregate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"bad as-of", snapshot, []string{"--as-of", "someday"}},
		{"bad fiscal start", snapshot, []string{"--fiscal-start", "13"}},
		{"not a snapshot", `"just a string"`, nil},
		{"truncated without repair", truncated, nil},
		{"missing file", "", []string{filepath.Join(t.TempDir(), "missing.json")}},
		{"too many args", "", []string{"a.json", "b.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.stdin, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestAggregate_RepairIsOptIn(t *testing.T) {
	_, err := execute(t, truncated, "--as-of", "2024-06-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--repair")

	result, err := execute(t, truncated, "--as-of", "2024-06-01", "--repair")
	require.NoError(t, err)
	assert.Equal(t, 1, result.RegionalPipeline["Q1"]["APAC"].Count)
}

func TestParseSnapshot_LogsRepair(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	payloads, err := parseSnapshot([]byte(`[{"name":"A"}]`), "stdin", true, log)
	require.NoError(t, err)
	assert.Len(t, payloads, 1)
	assert.Zero(t, logs.Len(), "valid input is not reported")

	payloads, err = parseSnapshot([]byte(truncated), "stdin", true, log)
	require.NoError(t, err)
	assert.Len(t, payloads, 2)
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, int64(len(truncated)), fields["original_bytes"])
	assert.Equal(t, int64(2), fields["deals"])
}
