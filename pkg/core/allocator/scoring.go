package allocator

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"
)

// MaxRank is the largest preference rank a requester may submit
const MaxRank = 5

// ScoreTable maps a preference rank to the points awarded when it is assigned
type ScoreTable map[int]int

// DefaultScoreTable returns the stock points table (first choice 100 down to fifth choice 5)
func DefaultScoreTable() ScoreTable {
	return ScoreTable{1: 100, 2: 50, 3: 25, 4: 10, 5: 5}
}

// Validate checks the table covers ranks 1..n contiguously (n <= MaxRank) with
// non-negative points that strictly decrease as rank increases
func (t ScoreTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("score table is empty")
	}

	var errs error
	ranks := t.Ranks()
	for i, rank := range ranks {
		if rank != i+1 {
			errs = multierr.Append(errs, fmt.Errorf("score table ranks must be contiguous from 1, found rank %d", rank))
			break
		}
	}
	if ranks[len(ranks)-1] > MaxRank {
		errs = multierr.Append(errs, fmt.Errorf("score table rank %d exceeds maximum rank %d", ranks[len(ranks)-1], MaxRank))
	}
	for i, rank := range ranks {
		if t[rank] < 0 {
			errs = multierr.Append(errs, fmt.Errorf("score for rank %d must not be negative, got %d", rank, t[rank]))
		}
		if i > 0 && t[rank] >= t[ranks[i-1]] {
			errs = multierr.Append(errs, fmt.Errorf("score for rank %d (%d) must be lower than rank %d (%d)",
				rank, t[rank], ranks[i-1], t[ranks[i-1]]))
		}
	}
	return errs
}

// Ranks returns the configured ranks in ascending order
func (t ScoreTable) Ranks() []int {
	ranks := make([]int, 0, len(t))
	for rank := range t {
		ranks = append(ranks, rank)
	}
	slices.Sort(ranks)
	return ranks
}

// Score returns the points for a rank, or a ConfigurationError when the rank is not configured
func (t ScoreTable) Score(rank int) (int, error) {
	points, ok := t[rank]
	if !ok {
		return 0, &ConfigurationError{Err: fmt.Errorf("no score configured for rank %d", rank)}
	}
	return points, nil
}

// TotalScore sums the points of every assigned choice plus the per-requester bonus.
// It recomputes from scratch and is used to cross-check the incremental score.
func TotalScore(s *Solution) int {
	total := 0
	for r := range s.assigned {
		if c := s.Choice(r); c != nil {
			total += c.Points + s.problem.bonus
		}
	}
	return total
}
