package allocator

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImprove_RejectsSwapInLosingMoreThanItGains(t *testing.T) {
	scores := ScoreTable{1: 100, 2: 60}
	p := newTestProblem(t, []Hut{{ID: "Bradley", Capacity: 10}}, scores,
		req(t, "alice", 2, "Bradley", "2025-12-01", "2025-12-03", 5),
		req(t, "bob", 2, "Bradley", "2025-12-01", "2025-12-03", 5),
		req(t, "carol", 1, "Bradley", "2025-12-01", "2025-12-03", 10),
	)
	sol := ConstructGreedy(p)
	require.Equal(t, 120, sol.Score())

	ls := &localSearch{sol: sol, p: p, rng: rand.New(rand.NewSource(1))}
	_, ok := ls.evictionSet(2, p.Requesters()[2].Choices[0])
	assert.False(t, ok, "evicting both alice and bob loses 120 to gain 100")

	stats := Improve(context.Background(), sol, rand.New(rand.NewSource(1)), LocalSearchOptions{SwapAttempts: 50})

	assert.Equal(t, 120, sol.Score())
	assert.Equal(t, 0, stats.SwapIns)
	assert.Equal(t, []string{"carol"}, sol.UnassignedRequesters())
	assert.Equal(t, PhaseConverged, stats.Phase)
}

func TestImprove_SwapInEvictsCheaperBlocker(t *testing.T) {
	scores := ScoreTable{1: 100, 2: 60}
	p := newTestProblem(t, []Hut{{ID: "Bradley", Capacity: 10}}, scores,
		req(t, "alice", 2, "Bradley", "2025-12-01", "2025-12-03", 10),
		req(t, "carol", 1, "Bradley", "2025-12-02", "2025-12-04", 10),
	)
	sol := ConstructGreedy(p)
	require.Equal(t, 60, sol.Score())

	stats := Improve(context.Background(), sol, rand.New(rand.NewSource(1)), LocalSearchOptions{SwapAttempts: 50})

	assert.Equal(t, 100, sol.Score())
	assert.Equal(t, 1, stats.SwapIns)
	assert.Equal(t, []string{"alice"}, sol.UnassignedRequesters())
	assert.Equal(t, 60, stats.InitialScore)
	assert.Equal(t, 100, stats.FinalScore)
}

func TestEvictionSet_KeepsOnlyNeededEvictions(t *testing.T) {
	p := newTestProblem(t, []Hut{{ID: "Bradley", Capacity: 10}}, DefaultScoreTable(),
		req(t, "alice", 5, "Bradley", "2025-12-01", "2025-12-03", 2),
		req(t, "bob", 4, "Bradley", "2025-12-01", "2025-12-03", 8),
		req(t, "carol", 1, "Bradley", "2025-12-01", "2025-12-03", 8),
	)
	sol := ConstructGreedy(p)
	require.Equal(t, 15, sol.Score())

	ls := &localSearch{sol: sol, p: p}
	evicted, ok := ls.evictionSet(2, p.Requesters()[2].Choices[0])

	require.True(t, ok)
	assert.Equal(t, []int{1}, evicted, "alice's two places are not in carol's way once bob leaves")
}

func TestImprove_PreferenceSwapUpgradesRequester(t *testing.T) {
	scores := ScoreTable{1: 100, 2: 60, 3: 30}
	huts := []Hut{{ID: "X", Capacity: 4}, {ID: "Y", Capacity: 4}, {ID: "Z", Capacity: 4}, {ID: "W", Capacity: 4}}
	p := newTestProblem(t, huts, scores,
		req(t, "alice", 1, "X", "2025-12-01", "2025-12-03", 4),
		req(t, "alice", 2, "Y", "2025-12-01", "2025-12-03", 4),
		req(t, "bob", 1, "X", "2025-12-01", "2025-12-03", 4),
		req(t, "bob", 2, "Z", "2025-12-01", "2025-12-03", 4),
		req(t, "bob", 3, "W", "2025-12-01", "2025-12-03", 4),
	)
	sol := NewSolution(p)
	require.True(t, sol.Assign(0, 0))
	require.True(t, sol.Assign(1, 2))
	require.Equal(t, 130, sol.Score())

	stats := Improve(context.Background(), sol, rand.New(rand.NewSource(5)), LocalSearchOptions{SwapAttempts: 100})

	assert.Equal(t, 160, sol.Score())
	assert.Equal(t, 1, stats.PreferenceSwaps)
	assert.Equal(t, 2, sol.AssignedCount())
	assert.True(t, sol.Ledger().Valid())
}

func TestImprove_ScoreMonotoneAndCapacityHeld(t *testing.T) {
	p := newTestProblem(t, contendedHuts(), DefaultScoreTable(), randomRequests(t, 21, 60, contendedHuts())...)

	for seed := int64(0); seed < 5; seed++ {
		rng := rand.New(rand.NewSource(seed))
		sol := ConstructRandomized(p, rng)
		initial := sol.Score()
		last := initial

		stats := Improve(context.Background(), sol, rng, LocalSearchOptions{
			SwapAttempts: 200,
			OnMove: func(kind MoveKind, score int) {
				assert.Greater(t, score, last, "every applied move strictly improves")
				assert.True(t, sol.Ledger().Valid(), "capacity exceeded after move")
				assert.Equal(t, TotalScore(sol), score)
				last = score
			},
		})

		assert.GreaterOrEqual(t, stats.FinalScore, initial)
		assert.Equal(t, last, stats.FinalScore)
		assert.Equal(t, PhaseConverged, stats.Phase)
	}
}

func TestImprove_StopsOnCancelledContext(t *testing.T) {
	p := newTestProblem(t, contendedHuts(), DefaultScoreTable(), randomRequests(t, 2, 30, contendedHuts())...)
	sol := ConstructGreedy(p)
	before := sol.Score()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := Improve(ctx, sol, rand.New(rand.NewSource(1)), LocalSearchOptions{SwapAttempts: 1000})

	assert.True(t, stats.Cancelled)
	assert.Equal(t, 0, stats.Attempts)
	assert.Equal(t, PhaseImproving, stats.Phase)
	assert.Equal(t, before, sol.Score())
}

func TestImprove_StopsAtMoveCapAndDeadline(t *testing.T) {
	p := newTestProblem(t, contendedHuts(), DefaultScoreTable(), randomRequests(t, 2, 30, contendedHuts())...)

	stats := Improve(context.Background(), ConstructGreedy(p), rand.New(rand.NewSource(1)),
		LocalSearchOptions{SwapAttempts: 1000, MaxMoves: 10})
	assert.True(t, stats.SliceExhausted)
	assert.Equal(t, 10, stats.Attempts)
	assert.Equal(t, PhaseConverged, stats.Phase)

	stats = Improve(context.Background(), ConstructGreedy(p), rand.New(rand.NewSource(1)),
		LocalSearchOptions{SwapAttempts: 1000, Deadline: time.Now().Add(-time.Second)})
	assert.True(t, stats.SliceExhausted)
	assert.Equal(t, 0, stats.Attempts)
}
