package records

import (
	"fmt"
	"math/rand"

	"github.com/jakechorley/hut-allocator/pkg/core/allocator"
)

var (
	sampleFirstNames = []string{"Alice", "Bob", "Carol", "David", "Emma", "Frank", "Grace", "Henry", "Iris", "Jack",
		"Kate", "Leo", "Maya", "Noah", "Olivia", "Paul", "Quinn", "Ruby", "Sam", "Tina"}
	sampleLastNames = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
)

// SampleOptions controls GenerateSample
type SampleOptions struct {
	Users int
	Huts  []allocator.Hut

	Season allocator.Season

	// MaxNights is the longest stay generated
	MaxNights int
}

// GenerateSample builds a random but reproducible request set: every user submits one
// request per rank with a party size that drifts by at most one between ranks.
// Stays favour the first half of the season.
func GenerateSample(rng *rand.Rand, opts SampleOptions) []allocator.Request {
	if opts.MaxNights <= 0 {
		opts.MaxNights = 4
	}
	nights := opts.Season.Nights()
	if nights <= 0 || len(opts.Huts) == 0 {
		return nil
	}

	var requests []allocator.Request
	used := make(map[string]bool)
	for u := 0; u < opts.Users; u++ {
		name := sampleName(rng, used)
		baseParty := 2 + rng.Intn(7)

		for rank := 1; rank <= allocator.MaxRank; rank++ {
			hut := opts.Huts[rng.Intn(len(opts.Huts))]

			var first int
			if rng.Float64() < 0.6 {
				first = rng.Intn(max(nights/2, 1))
			} else {
				first = rng.Intn(nights)
			}
			stay := min(1+rng.Intn(opts.MaxNights), nights-first)

			party := baseParty + rng.Intn(3) - 1
			party = max(1, min(party, hut.Capacity))

			requests = append(requests, allocator.Request{
				RequesterID: name,
				Rank:        rank,
				HutID:       hut.ID,
				Start:       opts.Season.Date(first),
				End:         opts.Season.Date(first + stay),
				PartySize:   party,
			})
		}
	}
	return requests
}

// sampleName picks an unused "First Last" name, adding a suffix once combinations run out
func sampleName(rng *rand.Rand, used map[string]bool) string {
	name := fmt.Sprintf("%s %s", sampleFirstNames[rng.Intn(len(sampleFirstNames))], sampleLastNames[rng.Intn(len(sampleLastNames))])
	base := name
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s %d", base, n)
	}
	used[name] = true
	return name
}
