package allocator

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"
)

// ProblemConfig is the immutable configuration shared by every trial of a run
type ProblemConfig struct {
	// Huts lists every bookable hut; the order is kept for reporting and suggestions
	Huts []Hut

	// Season bounds the valid nights
	Season Season

	// Scores maps preference rank to points
	Scores ScoreTable

	// AssignmentBonus is added once per assigned requester on top of the rank points
	AssignmentBonus int

	// Overrides replace the base capacity of a hut on specific nights
	Overrides []CapacityOverride
}

// Problem is the compiled, validated input of an allocation run.
// It is read-only once built and safe to share between concurrent trials.
type Problem struct {
	huts       []Hut
	hutIndex   map[string]int
	season     Season
	scores     ScoreTable
	bonus      int
	capacity   [][]int // [hut][night]
	requesters []*Requester
	warnings   []*InfeasibleRequestError
}

// NewProblem validates the configuration and compiles the requests into choices.
// Configuration problems abort with a *ConfigurationError; individual requests that can
// never be satisfied are excluded and reported through Warnings.
func NewProblem(cfg ProblemConfig, requests []Request) (*Problem, error) {
	if err := validateProblemConfig(cfg); err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	p := &Problem{
		huts:     slices.Clone(cfg.Huts),
		hutIndex: make(map[string]int, len(cfg.Huts)),
		season:   cfg.Season,
		scores:   cfg.Scores,
		bonus:    cfg.AssignmentBonus,
	}

	nights := cfg.Season.Nights()
	p.capacity = make([][]int, len(cfg.Huts))
	for i, hut := range cfg.Huts {
		p.hutIndex[hut.ID] = i
		row := make([]int, nights)
		for n := range row {
			row[n] = hut.Capacity
		}
		p.capacity[i] = row
	}
	for _, o := range cfg.Overrides {
		p.capacity[p.hutIndex[o.HutID]][cfg.Season.NightIndex(o.Night)] = o.Capacity
	}

	p.compileRequests(requests)

	return p, nil
}

func validateProblemConfig(cfg ProblemConfig) error {
	var errs error

	if len(cfg.Huts) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("at least one hut is required"))
	}
	seen := make(map[string]bool, len(cfg.Huts))
	for _, hut := range cfg.Huts {
		if hut.ID == "" {
			errs = multierr.Append(errs, fmt.Errorf("hut name must not be empty"))
		}
		if seen[hut.ID] {
			errs = multierr.Append(errs, fmt.Errorf("duplicate hut %q", hut.ID))
		}
		seen[hut.ID] = true
		if hut.Capacity <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("hut %q capacity must be positive, got %d", hut.ID, hut.Capacity))
		}
	}

	if cfg.Season.Nights() <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("season must contain at least one night"))
	}

	if err := cfg.Scores.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}

	if cfg.AssignmentBonus < 0 {
		errs = multierr.Append(errs, fmt.Errorf("assignment bonus must not be negative, got %d", cfg.AssignmentBonus))
	}

	for _, o := range cfg.Overrides {
		if !seen[o.HutID] {
			errs = multierr.Append(errs, fmt.Errorf("capacity override references unknown hut %q", o.HutID))
		}
		if night := cfg.Season.NightIndex(o.Night); night < 0 || night >= cfg.Season.Nights() {
			errs = multierr.Append(errs, fmt.Errorf("capacity override for %q on %s is outside the season",
				o.HutID, o.Night.Format(DateLayout)))
		}
		if o.Capacity < 0 {
			errs = multierr.Append(errs, fmt.Errorf("capacity override for %q must not be negative, got %d", o.HutID, o.Capacity))
		}
	}

	return errs
}

// compileRequests groups requests by requester (first-appearance order) and rank,
// turning each rank into one choice and excluding anything that can never fit
func (p *Problem) compileRequests(requests []Request) {
	byRequester := make(map[string]*Requester)
	byRank := make(map[string]map[int][]Request)

	for _, req := range requests {
		requester, ok := byRequester[req.RequesterID]
		if !ok {
			requester = &Requester{ID: req.RequesterID}
			byRequester[req.RequesterID] = requester
			byRank[req.RequesterID] = make(map[int][]Request)
			p.requesters = append(p.requesters, requester)
		}
		requester.Submitted = append(requester.Submitted, req)
		byRank[req.RequesterID][req.Rank] = append(byRank[req.RequesterID][req.Rank], req)
	}

	for idx, requester := range p.requesters {
		slices.SortStableFunc(requester.Submitted, func(a, b Request) int { return a.Rank - b.Rank })

		groups := byRank[requester.ID]
		ranks := make([]int, 0, len(groups))
		for rank := range groups {
			ranks = append(ranks, rank)
		}
		slices.Sort(ranks)

		for _, rank := range ranks {
			if choice := p.compileChoice(idx, rank, groups[rank]); choice != nil {
				requester.Choices = append(requester.Choices, choice)
			}
		}
	}
}

// compileChoice builds the choice for one requester rank, or returns nil when it is excluded
func (p *Problem) compileChoice(requester, rank int, group []Request) *Choice {
	first := group[0]

	// The first request decides the shape of the rank; anything else is a duplicate
	var members []Request
	for _, req := range group {
		if req.TraverseGroup == first.TraverseGroup && (first.IsTraverse() || len(members) == 0) {
			members = append(members, req)
			continue
		}
		p.warn(newInfeasible(req, "duplicate request for rank %d", rank))
	}

	points, err := p.scores.Score(rank)
	if err != nil {
		for _, req := range members {
			p.warn(newInfeasible(req, "rank %d is outside the configured ranks", rank))
		}
		return nil
	}

	legs := make([]leg, 0, len(members))
	var problems []*InfeasibleRequestError
	for _, req := range members {
		l, reason := p.compileLeg(req)
		if reason != "" {
			problems = append(problems, newInfeasible(req, "%s", reason))
			continue
		}
		if req.PartySize != first.PartySize {
			problems = append(problems, newInfeasible(req, "traverse legs must share a party size"))
			continue
		}
		for _, other := range legs {
			if other.overlaps(l) {
				problems = append(problems, newInfeasible(req, "traverse legs overlap on the same hut"))
				break
			}
		}
		legs = append(legs, l)
	}

	if len(problems) > 0 {
		for _, w := range problems {
			p.warn(w)
		}
		if len(problems) < len(members) {
			for _, req := range members {
				if !slices.ContainsFunc(problems, func(w *InfeasibleRequestError) bool { return w.Request == req }) {
					p.warn(newInfeasible(req, "traverse %q has an excluded leg", req.TraverseGroup))
				}
			}
		}
		return nil
	}

	return &Choice{
		Requester: requester,
		Rank:      rank,
		Points:    points,
		PartySize: first.PartySize,
		Requests:  members,
		legs:      legs,
	}
}

// compileLeg converts a request into night keys, returning a reason when it can never fit
func (p *Problem) compileLeg(req Request) (leg, string) {
	hut, ok := p.hutIndex[req.HutID]
	if !ok {
		return leg{}, fmt.Sprintf("unknown hut %q", req.HutID)
	}
	if !req.End.After(req.Start) {
		return leg{}, "end date must be after start date"
	}
	if !p.season.Contains(req.Start, req.End) {
		return leg{}, fmt.Sprintf("dates %s to %s fall outside the season",
			req.Start.Format(DateLayout), req.End.Format(DateLayout))
	}
	if req.PartySize <= 0 {
		return leg{}, fmt.Sprintf("party size must be positive, got %d", req.PartySize)
	}

	l := leg{hut: hut, first: p.season.NightIndex(req.Start), last: p.season.NightIndex(req.End)}
	for night := l.first; night < l.last; night++ {
		if capacity := p.capacity[hut][night]; req.PartySize > capacity {
			return leg{}, fmt.Sprintf("party size %d exceeds capacity %d of %s on %s",
				req.PartySize, capacity, req.HutID, p.season.Date(night).Format(DateLayout))
		}
	}
	return l, ""
}

func (p *Problem) warn(w *InfeasibleRequestError) {
	p.warnings = append(p.warnings, w)
}

// Huts returns the configured huts in configuration order
func (p *Problem) Huts() []Hut {
	return p.huts
}

// Season returns the bookable season
func (p *Problem) Season() Season {
	return p.season
}

// Requesters returns every requester in first-appearance order, including those left
// with no valid choice
func (p *Problem) Requesters() []*Requester {
	return p.requesters
}

// Warnings returns the requests excluded during compilation
func (p *Problem) Warnings() []*InfeasibleRequestError {
	return p.warnings
}

// Capacity returns the capacity of a hut on a night offset
func (p *Problem) Capacity(hut, night int) int {
	return p.capacity[hut][night]
}

// AssignmentBonus returns the points added per assigned requester
func (p *Problem) AssignmentBonus() int {
	return p.bonus
}
