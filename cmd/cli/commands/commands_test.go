package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/hut-allocator/internal/config"
	"github.com/jakechorley/hut-allocator/pkg/db"
	"github.com/jakechorley/hut-allocator/pkg/records"
)

func testApp(t *testing.T) *AppContext {
	optimizer := config.DefaultOptimizer()
	optimizer.Iterations = 2
	return &AppContext{
		Env:    "test",
		Ctx:    t.Context(),
		Logger: zap.NewNop(),
		Cfg: &config.Config{
			Huts:             []config.Hut{{Name: "Bradley", Capacity: 15}, {Name: "Benson", Capacity: 12}},
			Season:           config.Season{Start: "2025-12-01", End: "2026-01-31"},
			PreferenceScores: config.DefaultPreferenceScores(),
			Optimizer:        optimizer,
		},
	}
}

func TestGenerateSampleThenAllocate(t *testing.T) {
	app := testApp(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "requests.csv")

	var out bytes.Buffer
	gen := GenerateSampleCmd(app)
	gen.SetOut(&out)
	gen.SetArgs([]string{"--users", "12", "--seed", "4", "--out", input})
	require.NoError(t, gen.Execute())
	assert.Contains(t, out.String(), "Wrote 60 requests from 12 users")

	requests, _, err := records.ReadRequestsCSV(input, map[string]int{"Bradley": 15, "Benson": 12})
	require.NoError(t, err)
	assert.Len(t, requests, 60)

	out.Reset()
	validate := ValidateRequestsCmd(app)
	validate.SetOut(&out)
	validate.SetArgs([]string{"--input", input})
	require.NoError(t, validate.Execute())
	assert.Contains(t, out.String(), "60 requests from 12 requesters")

	out.Reset()
	results := filepath.Join(dir, "results")
	allocate := AllocateCmd(app)
	allocate.SetOut(&out)
	allocate.SetArgs([]string{"--input", input, "--out", results, "--seed", "9"})
	require.NoError(t, allocate.Execute())

	assert.Contains(t, out.String(), "Allocation complete")
	assert.NotContains(t, out.String(), "Run ID", "no database configured")
	assert.Equal(t, int64(9), app.Cfg.Optimizer.Seed)
	_, err = os.Stat(filepath.Join(results, records.BestAllocationFile))
	assert.NoError(t, err)
}

func TestSourceFlagsRequired(t *testing.T) {
	cmd := ValidateRequestsCmd(testApp(t))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	assert.Error(t, cmd.Execute())
}

func TestListRunsWithoutDatabase(t *testing.T) {
	cmd := ListRunsCmd(testApp(t))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"5"})

	assert.ErrorContains(t, cmd.Execute(), "no database configured")
}

func TestPrintRuns(t *testing.T) {
	var out bytes.Buffer
	printRuns(&out, nil)
	assert.Equal(t, "No runs recorded\n", out.String())

	out.Reset()
	printRuns(&out, []db.Run{{
		ID: "run-1", CreatedAt: "2025-11-20T10:00:00Z", Env: "prod",
		SeasonStart: "2025-12-01", SeasonEnd: "2026-05-31", Score: 420, Assigned: 5, Requesters: 6,
	}})
	assert.Contains(t, out.String(), "SCORE")
	assert.Contains(t, out.String(), "2025-12-01..2026-05-31")
	assert.Contains(t, out.String(), "5/6")
}
