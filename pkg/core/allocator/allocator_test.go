package allocator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testAllocationConfig(t *testing.T, huts []Hut) AllocationConfig {
	t.Helper()
	return AllocationConfig{
		Huts:           huts,
		Season:         testSeason(t, "2025-12-01", "2025-12-31"),
		Scores:         DefaultScoreTable(),
		Search:         testSearchOptions(),
		MaxSuggestions: 3,
		Logger:         zap.NewNop(),
	}
}

func TestAllocate_TwoRequestersOneWindow(t *testing.T) {
	config := testAllocationConfig(t, []Hut{{ID: "Bradley", Capacity: 10}})
	requests := []Request{
		req(t, "alice", 1, "Bradley", "2025-12-01", "2025-12-03", 6),
		req(t, "bob", 1, "Bradley", "2025-12-01", "2025-12-03", 6),
	}

	outcome, err := Allocate(context.Background(), config, requests)
	require.NoError(t, err)

	assert.Equal(t, 100, outcome.Best.Score())
	assert.Equal(t, 1, outcome.Best.AssignedCount())
	require.Len(t, outcome.Alternatives, 1)
	assert.NotEmpty(t, outcome.Alternatives[0].Suggestions)
	assert.Empty(t, outcome.Warnings)
	assert.False(t, outcome.TimedOut)
	assert.False(t, outcome.NoFeasibleAssignment)
	assert.Equal(t, 12, outcome.TrialsCompleted)
	require.Len(t, outcome.TopK, 1, "every trial reaches the same score")
	assert.Same(t, outcome.Best, outcome.TopK[0])
}

func TestAllocate_OversizedPartyIsWarningNotError(t *testing.T) {
	config := testAllocationConfig(t, []Hut{{ID: "Bradley", Capacity: 10}})
	requests := []Request{
		req(t, "alice", 1, "Bradley", "2025-12-01", "2025-12-03", 12),
	}

	outcome, err := Allocate(context.Background(), config, requests)
	require.NoError(t, err)

	require.Len(t, outcome.Warnings, 1)
	var infeasible *InfeasibleRequestError
	assert.True(t, errors.As(outcome.Warnings[0], &infeasible))
	assert.True(t, outcome.NoFeasibleAssignment)
	assert.Equal(t, 0, outcome.Best.Score())
	require.Len(t, outcome.Alternatives, 1)
	assert.Empty(t, outcome.Alternatives[0].Suggestions)
}

func TestAllocate_NoRequests(t *testing.T) {
	config := testAllocationConfig(t, []Hut{{ID: "Bradley", Capacity: 10}})

	outcome, err := Allocate(context.Background(), config, nil)
	require.NoError(t, err)

	assert.True(t, outcome.NoFeasibleAssignment)
	assert.Empty(t, outcome.Alternatives)
	assert.Equal(t, 0, outcome.Best.Score())
}

func TestAllocate_ConfigurationErrorAbortsBeforeSearch(t *testing.T) {
	config := testAllocationConfig(t, []Hut{{ID: "Bradley", Capacity: -1}})

	outcome, err := Allocate(context.Background(), config, []Request{
		req(t, "alice", 1, "Bradley", "2025-12-01", "2025-12-03", 2),
	})

	assert.Nil(t, outcome)
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestAllocate_InvalidSearchOptionsAreConfigurationErrors(t *testing.T) {
	config := testAllocationConfig(t, contendedHuts())
	config.Search.Iterations = 0

	outcome, err := Allocate(context.Background(), config, []Request{
		req(t, "alice", 1, "Bradley", "2025-12-01", "2025-12-03", 2),
	})

	assert.Nil(t, outcome)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Len(t, cfgErr.Problems(), 1)
}

func TestAllocate_IsReproducible(t *testing.T) {
	config := testAllocationConfig(t, contendedHuts())
	requests := randomRequests(t, 31, 60, contendedHuts())

	first, err := Allocate(context.Background(), config, requests)
	require.NoError(t, err)
	second, err := Allocate(context.Background(), config, requests)
	require.NoError(t, err)

	assert.Equal(t, first.Best.Score(), second.Best.Score())
	assert.Equal(t, first.Best.Statuses(), second.Best.Statuses())
	assert.Equal(t, first.Alternatives, second.Alternatives)
	assert.True(t, first.Best.Ledger().Valid())
	assert.GreaterOrEqual(t, first.Best.Score(), ConstructGreedy(first.Problem).Score(),
		"trial 0 starts from the greedy construction")
}
