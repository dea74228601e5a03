package allocator

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AllocationConfig contains everything a single allocation run needs
type AllocationConfig struct {
	// Huts lists every bookable hut with its base capacity
	Huts []Hut

	// Season bounds the valid nights
	Season Season

	// Scores maps preference rank to points
	Scores ScoreTable

	// AssignmentBonus is added per assigned requester (0 keeps the score a plain rank sum)
	AssignmentBonus int

	// Overrides replace hut capacity on individual nights (closures)
	Overrides []CapacityOverride

	// Search bounds the multi-start search
	Search SearchOptions

	// MaxSuggestions caps the alternatives proposed per unassigned requester (0 = no cap)
	MaxSuggestions int

	// Logger receives trial and run logs (nil = discard)
	Logger *zap.Logger
}

// AllocationOutcome represents the result of an allocation run
type AllocationOutcome struct {
	// Problem is the compiled input shared by every solution of the run
	Problem *Problem

	// Best is the highest-scoring solution found
	Best *Solution

	// TopK holds the best distinct-score solutions, best first; TopK[0] is Best
	TopK []*Solution

	// Alternatives lists suggestions for every requester left unassigned in Best
	Alternatives []Alternatives

	// Warnings contains every request excluded before the search started
	Warnings []*InfeasibleRequestError

	TrialsCompleted int
	TrialsAbandoned int

	// TimedOut is set when the time budget ended the search before every trial completed
	TimedOut bool

	// NoFeasibleAssignment is set when the best solution assigns nobody
	NoFeasibleAssignment bool

	Duration time.Duration
}

// Allocate compiles the requests, runs the multi-start search and suggests alternatives
// for whoever is left unassigned. Only configuration problems are returned as errors.
func Allocate(ctx context.Context, config AllocationConfig, requests []Request) (*AllocationOutcome, error) {
	started := time.Now()
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	problem, err := NewProblem(ProblemConfig{
		Huts:            config.Huts,
		Season:          config.Season,
		Scores:          config.Scores,
		AssignmentBonus: config.AssignmentBonus,
		Overrides:       config.Overrides,
	}, requests)
	if err != nil {
		return nil, err
	}

	for _, w := range problem.Warnings() {
		logger.Warn("Excluded request", zap.String("requester", w.Request.RequesterID),
			zap.Int("rank", w.Request.Rank), zap.String("reason", w.Reason))
	}
	logger.Info("Starting allocation",
		zap.Int("requesters", len(problem.Requesters())),
		zap.Int("requests", len(requests)),
		zap.Int("huts", len(problem.Huts())),
		zap.Int("nights", problem.Season().Nights()),
		zap.Int("iterations", config.Search.Iterations))

	result, err := Search(ctx, problem, config.Search, logger)
	if err != nil {
		return nil, err
	}

	outcome := buildOutcome(problem, result, config.MaxSuggestions)
	outcome.Duration = time.Since(started)

	logger.Info("Allocation complete",
		zap.Int("score", outcome.Best.Score()),
		zap.Int("assigned", outcome.Best.AssignedCount()),
		zap.Int("unassigned", len(problem.Requesters())-outcome.Best.AssignedCount()),
		zap.Int("trials_completed", outcome.TrialsCompleted),
		zap.Int("trials_abandoned", outcome.TrialsAbandoned),
		zap.Bool("timed_out", outcome.TimedOut),
		zap.Duration("duration", outcome.Duration))

	return outcome, nil
}

// buildOutcome creates the final allocation outcome report
func buildOutcome(problem *Problem, result *SearchResult, maxSuggestions int) *AllocationOutcome {
	// Initialize with empty slices (not nil) for easier consumption
	outcome := &AllocationOutcome{
		Problem:         problem,
		Best:            result.Best.Solution,
		TopK:            make([]*Solution, 0, len(result.TopK)),
		Alternatives:    []Alternatives{},
		Warnings:        []*InfeasibleRequestError{},
		TrialsCompleted: result.TrialsCompleted,
		TrialsAbandoned: result.TrialsAbandoned,
		TimedOut:        result.TimedOut,
	}

	for _, t := range result.TopK {
		outcome.TopK = append(outcome.TopK, t.Solution)
	}
	outcome.Warnings = append(outcome.Warnings, problem.Warnings()...)
	outcome.NoFeasibleAssignment = outcome.Best.AssignedCount() == 0
	outcome.Alternatives = append(outcome.Alternatives, SuggestAlternatives(outcome.Best, maxSuggestions)...)

	return outcome
}
