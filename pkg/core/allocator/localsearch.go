package allocator

import (
	"context"
	"math/rand"
	"slices"
	"time"
)

// checkInterval is how many move attempts run between cancellation checks
const checkInterval = 32

// Phase is the lifecycle state of a trial's solution
type Phase int

const (
	PhaseConstructed Phase = iota
	PhaseImproving
	PhaseConverged
)

func (p Phase) String() string {
	switch p {
	case PhaseConstructed:
		return "constructed"
	case PhaseImproving:
		return "improving"
	case PhaseConverged:
		return "converged"
	default:
		return "unknown"
	}
}

// MoveKind identifies a neighbourhood move
type MoveKind int

const (
	// MoveSwapIn assigns an unassigned requester, evicting cheaper blockers if needed
	MoveSwapIn MoveKind = iota

	// MovePreferenceSwap moves two assigned requesters between their own choices
	MovePreferenceSwap
)

// LocalSearchOptions bounds a single trial's improvement loop
type LocalSearchOptions struct {
	// SwapAttempts is the number of consecutive non-improving attempts after which the
	// trial is converged
	SwapAttempts int

	// MaxMoves caps the total number of attempts in the trial (0 = unlimited)
	MaxMoves int

	// Deadline ends the trial's time slice (zero = none)
	Deadline time.Time

	// OnMove is called after every applied move with the new score
	OnMove func(kind MoveKind, score int)
}

// LocalSearchStats summarises one improvement loop
type LocalSearchStats struct {
	Phase           Phase
	Attempts        int
	SwapIns         int
	PreferenceSwaps int
	InitialScore    int
	FinalScore      int

	// Cancelled is set when the context ended mid-trial; the solution is still feasible
	// but the trial did not run to convergence
	Cancelled bool

	// SliceExhausted is set when the time slice or move cap ended the trial
	SliceExhausted bool
}

type localSearch struct {
	sol  *Solution
	p    *Problem
	rng  *rand.Rand
	opts LocalSearchOptions
}

// Improve mutates sol in place with swap-in and preference-swap moves, applying only moves
// that strictly increase the score and keep every night key within capacity
func Improve(ctx context.Context, sol *Solution, rng *rand.Rand, opts LocalSearchOptions) LocalSearchStats {
	if opts.SwapAttempts <= 0 {
		opts.SwapAttempts = 1
	}
	ls := &localSearch{sol: sol, p: sol.problem, rng: rng, opts: opts}

	stats := LocalSearchStats{Phase: PhaseImproving, InitialScore: sol.Score()}
	failures := 0
	for failures < opts.SwapAttempts {
		if stats.Attempts%checkInterval == 0 {
			if ctx.Err() != nil {
				stats.Cancelled = true
				break
			}
			if !opts.Deadline.IsZero() && time.Now().After(opts.Deadline) {
				stats.SliceExhausted = true
				break
			}
		}
		if opts.MaxMoves > 0 && stats.Attempts >= opts.MaxMoves {
			stats.SliceExhausted = true
			break
		}

		stats.Attempts++
		kind := MoveSwapIn
		if stats.Attempts%2 == 0 {
			kind = MovePreferenceSwap
		}

		var improved bool
		if kind == MoveSwapIn {
			improved = ls.trySwapIn()
			if improved {
				stats.SwapIns++
			}
		} else {
			improved = ls.tryPreferenceSwap()
			if improved {
				stats.PreferenceSwaps++
			}
		}

		if !improved {
			failures++
			continue
		}
		failures = 0
		if opts.OnMove != nil {
			opts.OnMove(kind, sol.Score())
		}
	}

	if !stats.Cancelled {
		stats.Phase = PhaseConverged
	}
	stats.FinalScore = sol.Score()
	return stats
}

// assignment records a requester's held choice so it can be restored
type assignment struct {
	requester int
	choice    int
}

// trySwapIn picks an unassigned requester and one of its choices, and assigns it if the
// requesters it displaces are worth strictly less than it gains
func (ls *localSearch) trySwapIn() bool {
	var candidates []int
	for r, requester := range ls.p.requesters {
		if !ls.sol.IsAssigned(r) && len(requester.Choices) > 0 {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return false
	}

	u := candidates[ls.rng.Intn(len(candidates))]
	choices := ls.p.requesters[u].Choices
	ci := ls.rng.Intn(len(choices))
	target := choices[ci]

	evicted, ok := ls.evictionSet(u, target)
	if !ok {
		return false
	}

	restore := make([]assignment, len(evicted))
	for i, r := range evicted {
		restore[i] = assignment{requester: r, choice: ls.sol.ChoiceIndex(r)}
		ls.sol.Unassign(r)
	}
	if !ls.sol.Assign(u, ci) {
		ls.restore(restore)
		return false
	}
	return true
}

// evictionSet finds the requesters to unassign so target fits, cheapest first, and
// reports whether the swap strictly increases the score
func (ls *localSearch) evictionSet(u int, target *Choice) ([]int, bool) {
	gain := target.Points + ls.p.bonus
	if gain <= 0 {
		return nil, false
	}
	if ls.sol.ledger.CanFit(target) {
		return nil, true
	}

	var blockers []int
	for r := range ls.p.requesters {
		if r == u {
			continue
		}
		if held := ls.sol.Choice(r); held != nil && held.overlaps(target) {
			blockers = append(blockers, r)
		}
	}
	slices.SortStableFunc(blockers, func(a, b int) int {
		return ls.sol.Choice(a).Points - ls.sol.Choice(b).Points
	})

	var selected []int
	var released []*Choice
	lost := 0
	fits := false
	for _, r := range blockers {
		held := ls.sol.Choice(r)
		selected = append(selected, r)
		released = append(released, held)
		lost += held.Points + ls.p.bonus
		if lost >= gain {
			return nil, false
		}
		if ls.sol.ledger.CanFitAfter([]*Choice{target}, released) {
			fits = true
			break
		}
	}
	if !fits {
		return nil, false
	}

	// Drop evictions that turned out to be unnecessary, most expensive first
	for i := len(selected) - 1; i >= 0 && len(selected) > 1; i-- {
		trialReleased := slices.Delete(slices.Clone(released), i, i+1)
		if ls.sol.ledger.CanFitAfter([]*Choice{target}, trialReleased) {
			selected = slices.Delete(selected, i, i+1)
			released = trialReleased
		}
	}
	return selected, true
}

// tryPreferenceSwap upgrades an assigned requester B to a better-ranked choice while a
// second assigned requester A moves between its own choices to make room
func (ls *localSearch) tryPreferenceSwap() bool {
	var improvable, assigned []int
	for r := range ls.p.requesters {
		if !ls.sol.IsAssigned(r) {
			continue
		}
		assigned = append(assigned, r)
		if ls.sol.ChoiceIndex(r) > 0 {
			improvable = append(improvable, r)
		}
	}
	if len(improvable) == 0 || len(assigned) < 2 {
		return false
	}

	b := improvable[ls.rng.Intn(len(improvable))]
	bCur := ls.sol.ChoiceIndex(b)
	bNewIdx := ls.rng.Intn(bCur)
	bOld := ls.sol.Choice(b)
	bNew := ls.p.requesters[b].Choices[bNewIdx]

	var partners []int
	for _, r := range assigned {
		if r != b && ls.sol.Choice(r).overlaps(bNew) {
			partners = append(partners, r)
		}
	}
	if len(partners) == 0 {
		for _, r := range assigned {
			if r != b {
				partners = append(partners, r)
			}
		}
	}
	a := partners[ls.rng.Intn(len(partners))]
	aCur := ls.sol.ChoiceIndex(a)
	aOld := ls.sol.Choice(a)

	bestIdx, bestDelta := -1, 0
	for ai, aNew := range ls.p.requesters[a].Choices {
		delta := bNew.Points - bOld.Points + aNew.Points - aOld.Points
		if delta <= bestDelta {
			continue
		}
		add := []*Choice{bNew}
		remove := []*Choice{bOld}
		if ai != aCur {
			add = append(add, aNew)
			remove = append(remove, aOld)
		}
		if ls.sol.ledger.CanFitAfter(add, remove) {
			bestIdx, bestDelta = ai, delta
		}
	}
	if bestIdx < 0 {
		return false
	}

	restore := []assignment{{requester: b, choice: bCur}}
	ls.sol.Unassign(b)
	if bestIdx != aCur {
		restore = append(restore, assignment{requester: a, choice: aCur})
		ls.sol.Unassign(a)
	}
	if !ls.sol.Assign(b, bNewIdx) {
		ls.restore(restore)
		return false
	}
	if bestIdx != aCur && !ls.sol.Assign(a, bestIdx) {
		ls.sol.Unassign(b)
		ls.restore(restore)
		return false
	}
	return true
}

func (ls *localSearch) restore(held []assignment) {
	for _, h := range held {
		ls.sol.Assign(h.requester, h.choice)
	}
}
