package allocator

import "slices"

const unassigned = -1

// Solution maps every requester to at most one of its choices.
// The ledger and score are kept in step with every assignment change.
type Solution struct {
	problem  *Problem
	assigned []int // choice index per requester, or unassigned
	ledger   *Ledger
	score    int
}

// NewSolution creates an empty solution where every requester is unassigned
func NewSolution(p *Problem) *Solution {
	assigned := make([]int, len(p.requesters))
	for i := range assigned {
		assigned[i] = unassigned
	}
	return &Solution{problem: p, assigned: assigned, ledger: NewLedger(p)}
}

// Assign gives requester r its choice ci if the requester is unassigned and the choice fits.
// Nothing changes when it returns false.
func (s *Solution) Assign(r, ci int) bool {
	if s.assigned[r] != unassigned {
		return false
	}
	c := s.problem.requesters[r].Choices[ci]
	if !s.ledger.CanFit(c) {
		return false
	}
	s.ledger.Commit(c)
	s.assigned[r] = ci
	s.score += c.Points + s.problem.bonus
	return true
}

// Unassign releases whatever requester r currently holds
func (s *Solution) Unassign(r int) {
	c := s.Choice(r)
	if c == nil {
		return
	}
	s.ledger.Release(c)
	s.assigned[r] = unassigned
	s.score -= c.Points + s.problem.bonus
}

// Choice returns the choice held by requester r, or nil when unassigned
func (s *Solution) Choice(r int) *Choice {
	ci := s.assigned[r]
	if ci == unassigned {
		return nil
	}
	return s.problem.requesters[r].Choices[ci]
}

// ChoiceIndex returns the index of the choice held by requester r, or -1
func (s *Solution) ChoiceIndex(r int) int {
	return s.assigned[r]
}

// IsAssigned returns true if requester r holds a choice
func (s *Solution) IsAssigned(r int) bool {
	return s.assigned[r] != unassigned
}

// Score returns the total satisfaction of the solution
func (s *Solution) Score() int {
	return s.score
}

// Ledger returns the solution's capacity ledger. Callers must treat it as read-only.
func (s *Solution) Ledger() *Ledger {
	return s.ledger
}

// Problem returns the problem the solution was built for
func (s *Solution) Problem() *Problem {
	return s.problem
}

// AssignedCount returns the number of requesters holding a choice
func (s *Solution) AssignedCount() int {
	count := 0
	for _, ci := range s.assigned {
		if ci != unassigned {
			count++
		}
	}
	return count
}

// Clone returns an independent copy with its own ledger
func (s *Solution) Clone() *Solution {
	return &Solution{
		problem:  s.problem,
		assigned: slices.Clone(s.assigned),
		ledger:   s.ledger.Clone(),
		score:    s.score,
	}
}

// Equal reports whether both solutions hold exactly the same choices
func (s *Solution) Equal(other *Solution) bool {
	return s.problem == other.problem && slices.Equal(s.assigned, other.assigned)
}

// RequesterStatus is the per-requester view of a solution handed to formatters
type RequesterStatus struct {
	RequesterID string

	// Assigned is false when the requester holds nothing
	Assigned bool

	// Rank of the held choice (0 when unassigned)
	Rank int

	// Requests holds the assigned legs, or every submitted request when unassigned
	Requests []Request
}

// Statuses lists every requester in input order with what they hold
func (s *Solution) Statuses() []RequesterStatus {
	statuses := make([]RequesterStatus, len(s.problem.requesters))
	for r, requester := range s.problem.requesters {
		status := RequesterStatus{RequesterID: requester.ID}
		if c := s.Choice(r); c != nil {
			status.Assigned = true
			status.Rank = c.Rank
			status.Requests = c.Requests
		} else {
			status.Requests = requester.Submitted
		}
		statuses[r] = status
	}
	return statuses
}

// UnassignedRequesters returns the IDs of requesters holding nothing, in input order
func (s *Solution) UnassignedRequesters() []string {
	var ids []string
	for r, requester := range s.problem.requesters {
		if !s.IsAssigned(r) {
			ids = append(ids, requester.ID)
		}
	}
	return ids
}

// RankCounts returns how many requesters were assigned each rank
func (s *Solution) RankCounts() map[int]int {
	counts := make(map[int]int)
	for r := range s.assigned {
		if c := s.Choice(r); c != nil {
			counts[c.Rank]++
		}
	}
	return counts
}
