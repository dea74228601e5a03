package allocator

import "slices"

// nightKey is the atomic unit of capacity accounting: one hut on one night
type nightKey struct {
	hut   int
	night int
}

// Ledger tracks committed party size per hut and night for a single solution.
// It is never shared between solutions.
type Ledger struct {
	problem   *Problem
	committed [][]int // [hut][night]
}

// NewLedger creates an empty ledger for the problem
func NewLedger(p *Problem) *Ledger {
	committed := make([][]int, len(p.huts))
	for i := range committed {
		committed[i] = make([]int, p.season.Nights())
	}
	return &Ledger{problem: p, committed: committed}
}

// CanFit checks that every night key of the choice has room for its party
func (l *Ledger) CanFit(c *Choice) bool {
	return l.CanFitAfter([]*Choice{c}, nil)
}

// CanFitAfter checks, without mutating the ledger, that after releasing every choice in
// remove and committing every choice in add no night key exceeds its capacity.
// Only the night keys touched by add are inspected; releasing can never break capacity.
func (l *Ledger) CanFitAfter(add, remove []*Choice) bool {
	if len(add) == 1 && len(remove) == 0 {
		c := add[0]
		for _, lg := range c.legs {
			if !l.fits(lg.hut, lg.first, lg.last, c.PartySize) {
				return false
			}
		}
		return true
	}

	demand := make(map[nightKey]int)
	for _, c := range add {
		for _, lg := range c.legs {
			for night := lg.first; night < lg.last; night++ {
				demand[nightKey{lg.hut, night}] += c.PartySize
			}
		}
	}
	for _, c := range remove {
		for _, lg := range c.legs {
			for night := lg.first; night < lg.last; night++ {
				key := nightKey{lg.hut, night}
				if _, touched := demand[key]; touched {
					demand[key] -= c.PartySize
				}
			}
		}
	}
	for key, delta := range demand {
		if l.committed[key.hut][key.night]+delta > l.problem.capacity[key.hut][key.night] {
			return false
		}
	}
	return true
}

// Commit adds the choice's party size to each night key it occupies.
// Callers must check CanFit first; there is no rollback.
func (l *Ledger) Commit(c *Choice) {
	for _, lg := range c.legs {
		for night := lg.first; night < lg.last; night++ {
			l.committed[lg.hut][night] += c.PartySize
		}
	}
}

// Release subtracts a previously committed choice
func (l *Ledger) Release(c *Choice) {
	for _, lg := range c.legs {
		for night := lg.first; night < lg.last; night++ {
			l.committed[lg.hut][night] -= c.PartySize
		}
	}
}

// Committed returns the party size committed to a hut on a night offset
func (l *Ledger) Committed(hut, night int) int {
	return l.committed[hut][night]
}

// Remaining returns the free places of a hut on a night offset
func (l *Ledger) Remaining(hut, night int) int {
	return l.problem.capacity[hut][night] - l.committed[hut][night]
}

// fits checks a hypothetical stay of partySize over [first, last) on a hut
func (l *Ledger) fits(hut, first, last, partySize int) bool {
	if first < 0 || last > len(l.committed[hut]) {
		return false
	}
	for night := first; night < last; night++ {
		if l.committed[hut][night]+partySize > l.problem.capacity[hut][night] {
			return false
		}
	}
	return true
}

// Valid reports whether every night key is within capacity
func (l *Ledger) Valid() bool {
	for hut, row := range l.committed {
		for night, used := range row {
			if used < 0 || used > l.problem.capacity[hut][night] {
				return false
			}
		}
	}
	return true
}

// Clone returns an independent copy of the ledger
func (l *Ledger) Clone() *Ledger {
	committed := make([][]int, len(l.committed))
	for i, row := range l.committed {
		committed[i] = slices.Clone(row)
	}
	return &Ledger{problem: l.problem, committed: committed}
}

// Occupancy is the committed load of one hut on one night
type Occupancy struct {
	HutID     string
	Night     string
	Committed int
	Capacity  int
}

// Occupancy lists every night with a non-zero commitment, hut by hut in configuration order
func (l *Ledger) Occupancy() []Occupancy {
	var out []Occupancy
	for hut, row := range l.committed {
		for night, used := range row {
			if used == 0 {
				continue
			}
			out = append(out, Occupancy{
				HutID:     l.problem.huts[hut].ID,
				Night:     l.problem.season.Date(night).Format(DateLayout),
				Committed: used,
				Capacity:  l.problem.capacity[hut][night],
			})
		}
	}
	return out
}
