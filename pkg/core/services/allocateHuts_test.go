package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/hut-allocator/internal/config"
	"github.com/jakechorley/hut-allocator/pkg/core/allocator"
	"github.com/jakechorley/hut-allocator/pkg/records"
)

func TestAllocateHuts_PersistsRun(t *testing.T) {
	store := &mockRunStore{}
	source := &mockSource{requests: contendedRequests(t), contacts: records.Contacts{"Bob": "bob@example.com"}}

	result, err := AllocateHuts(t.Context(), source, store, testConfig(), zap.NewNop(), AllocateOptions{Env: "test"})
	require.NoError(t, err)

	outcome := result.Outcome
	assert.Equal(t, 1, outcome.Best.AssignedCount(), "only one party fits in Bradley")
	require.Len(t, outcome.Alternatives, 1)
	assert.Equal(t, records.Contacts{"Bob": "bob@example.com"}, result.Contacts)
	assert.Empty(t, result.Files, "no output dir")

	require.Len(t, store.runs, 1)
	run := store.runs[0]
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, "test", run.Env)
	assert.Equal(t, "2025-12-01", run.SeasonStart)
	assert.Equal(t, 2, run.Requesters)
	assert.Equal(t, 1, run.Assigned)
	assert.Equal(t, outcome.Best.Score(), run.Score)

	assignments := store.assignments[run.ID]
	require.Len(t, assignments, 1)
	assert.Equal(t, "Bradley", assignments[0].HutID)
	assert.Equal(t, "2025-12-03", assignments[0].EndDate)
	assert.Equal(t, run.ID, assignments[0].RunID)

	suggestions := store.suggestions[run.ID]
	require.NotEmpty(t, suggestions)
	assert.Equal(t, outcome.Alternatives[0].RequesterID, suggestions[0].RequesterID)
}

func TestAllocateHuts_DryRunWritesFilesOnly(t *testing.T) {
	store := &mockRunStore{}
	dir := filepath.Join(t.TempDir(), "out")

	result, err := AllocateHuts(t.Context(), &mockSource{requests: contendedRequests(t)}, store, testConfig(), zap.NewNop(),
		AllocateOptions{OutputDir: dir, DryRun: true})
	require.NoError(t, err)

	assert.Empty(t, store.runs)
	assert.Empty(t, result.RunID)
	require.NotEmpty(t, result.Files)
	for _, f := range result.Files {
		_, err := os.Stat(f)
		assert.NoError(t, err)
	}
	assert.Equal(t, filepath.Join(dir, records.BestAllocationFile), result.Files[0])
}

func TestAllocateHuts_NilStore(t *testing.T) {
	result, err := AllocateHuts(t.Context(), &mockSource{requests: contendedRequests(t)}, nil, testConfig(), zap.NewNop(), AllocateOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.RunID)
}

func TestAllocateHuts_Errors(t *testing.T) {
	t.Run("source failure", func(t *testing.T) {
		_, err := AllocateHuts(t.Context(), &mockSource{err: errors.New("boom")}, nil, testConfig(), zap.NewNop(), AllocateOptions{})
		assert.ErrorContains(t, err, "failed to load requests: boom")
	})

	t.Run("store failure", func(t *testing.T) {
		store := &mockRunStore{insertErr: errors.New("connection refused")}
		_, err := AllocateHuts(t.Context(), &mockSource{requests: contendedRequests(t)}, store, testConfig(), zap.NewNop(), AllocateOptions{})
		assert.ErrorContains(t, err, "failed to save run")
	})

	t.Run("configuration error", func(t *testing.T) {
		cfg := testConfig()
		cfg.PreferenceScores = map[int]int{1: 10, 2: 20}
		_, err := AllocateHuts(t.Context(), &mockSource{requests: contendedRequests(t)}, nil, cfg, zap.NewNop(), AllocateOptions{})
		var cfgErr *allocator.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})
}

func TestSheetSource(t *testing.T) {
	sheets := &mockSheets{rows: map[string][][]string{
		"requests/Form responses": {
			{"UserName", "PreferenceRank", "Hut", "StartDate", "EndDate", "PartySize", "Email"},
			{"Amy", "1", "Benson", "2025-12-01", "2025-12-02", "ENTIRE", "amy@example.com"},
		},
	}}
	cfg := testConfig()
	source := SheetSource{Reader: sheets, SpreadsheetID: cfg.Sheets.RequestsSheetID, Tab: cfg.Sheets.RequestsTab}

	requests, contacts, err := source.LoadRequests(t.Context(), hutCapacities(cfg))
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, 12, requests[0].PartySize)
	assert.Equal(t, "amy@example.com", contacts["Amy"])

	_, _, err = SheetSource{Reader: sheets, SpreadsheetID: "requests", Tab: "missing"}.LoadRequests(t.Context(), nil)
	assert.ErrorContains(t, err, "failed to read request sheet")
}

func TestCSVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.csv")
	require.NoError(t, records.WriteCSVFile(path, records.RequestRows(contendedRequests(t))))

	requests, _, err := CSVSource{Path: path}.LoadRequests(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, contendedRequests(t), requests)
}

func TestConvertClosures(t *testing.T) {
	season, err := allocator.ParseSeason("2025-12-01", "2025-12-31")
	require.NoError(t, err)

	overrides, err := convertClosures([]config.Closure{
		{Hut: "Bradley", RRule: "FREQ=WEEKLY;BYDAY=MO", Capacity: 0},
	}, season, zap.NewNop())
	require.NoError(t, err)

	var nights []string
	for _, o := range overrides {
		assert.Equal(t, "Bradley", o.HutID)
		assert.Equal(t, 0, o.Capacity)
		nights = append(nights, o.Night.Format(allocator.DateLayout))
	}
	assert.Equal(t, []string{"2025-12-01", "2025-12-08", "2025-12-15", "2025-12-22", "2025-12-29"}, nights)

	_, err = convertClosures([]config.Closure{{Hut: "Bradley", RRule: "FREQ=SOMETIMES"}}, season, zap.NewNop())
	assert.Error(t, err)
}

func TestAllocateHuts_ClosureBlocksRequest(t *testing.T) {
	cfg := testConfig()
	cfg.Closures = []config.Closure{{Hut: "Bradley", RRule: "FREQ=DAILY;COUNT=2", Capacity: 0}}
	source := &mockSource{requests: contendedRequests(t)[:1]}

	result, err := AllocateHuts(t.Context(), source, nil, cfg, zap.NewNop(), AllocateOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Outcome.Best.AssignedCount())
	assert.True(t, result.Outcome.NoFeasibleAssignment)
	require.Len(t, result.Outcome.Warnings, 1, "closed nights make the request infeasible")
}
