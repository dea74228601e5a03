package allocator

import "math/rand"

// Strategy selects how a trial builds its initial solution
type Strategy int

const (
	// StrategyGreedy processes requesters in input order
	StrategyGreedy Strategy = iota

	// StrategyRandomized shuffles requester order with the trial's seeded source
	StrategyRandomized
)

func (s Strategy) String() string {
	switch s {
	case StrategyGreedy:
		return "greedy"
	case StrategyRandomized:
		return "randomized"
	default:
		return "unknown"
	}
}

// ConstructGreedy builds a solution taking requesters in input order, giving each the
// most preferred choice that still fits
func ConstructGreedy(p *Problem) *Solution {
	order := make([]int, len(p.requesters))
	for i := range order {
		order[i] = i
	}
	return construct(p, order)
}

// ConstructRandomized applies the same preference-first rule after shuffling requester
// order. The result depends only on the state of rng.
func ConstructRandomized(p *Problem, rng *rand.Rand) *Solution {
	order := rng.Perm(len(p.requesters))
	return construct(p, order)
}

// Construct dispatches to the strategy's builder
func Construct(p *Problem, strategy Strategy, rng *rand.Rand) *Solution {
	if strategy == StrategyRandomized {
		return ConstructRandomized(p, rng)
	}
	return ConstructGreedy(p)
}

func construct(p *Problem, order []int) *Solution {
	s := NewSolution(p)
	for _, r := range order {
		// Choices are already in ascending rank order
		for ci := range p.requesters[r].Choices {
			if s.Assign(r, ci) {
				break
			}
		}
	}
	return s
}
