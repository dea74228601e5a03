package allocator

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	require.NoError(t, err)
	return d
}

func testSeason(t *testing.T, start, end string) Season {
	t.Helper()
	season, err := ParseSeason(start, end)
	require.NoError(t, err)
	return season
}

func req(t *testing.T, requester string, rank int, hut, start, end string, party int) Request {
	t.Helper()
	return Request{
		RequesterID: requester,
		Rank:        rank,
		HutID:       hut,
		Start:       date(t, start),
		End:         date(t, end),
		PartySize:   party,
	}
}

func newTestProblem(t *testing.T, huts []Hut, scores ScoreTable, requests ...Request) *Problem {
	t.Helper()
	p, err := NewProblem(ProblemConfig{
		Huts:   huts,
		Season: testSeason(t, "2025-12-01", "2025-12-31"),
		Scores: scores,
	}, requests)
	require.NoError(t, err)
	return p
}

// randomRequests builds a contended request set from a fixed seed
func randomRequests(t *testing.T, seed int64, requesters int, huts []Hut) []Request {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	start := date(t, "2025-12-01")

	var requests []Request
	for i := 0; i < requesters; i++ {
		id := fmt.Sprintf("user%02d", i)
		party := 1 + rng.Intn(5)
		ranks := 1 + rng.Intn(MaxRank)
		for rank := 1; rank <= ranks; rank++ {
			first := rng.Intn(20)
			nights := 1 + rng.Intn(3)
			requests = append(requests, Request{
				RequesterID: id,
				Rank:        rank,
				HutID:       huts[rng.Intn(len(huts))].ID,
				Start:       start.AddDate(0, 0, first),
				End:         start.AddDate(0, 0, first+nights),
				PartySize:   party,
			})
		}
	}
	return requests
}

func contendedHuts() []Hut {
	return []Hut{{ID: "Bradley", Capacity: 8}, {ID: "Benson", Capacity: 6}, {ID: "Ludlow", Capacity: 8}}
}
