package allocator

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"slices"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// greedyShare is the probability that a trial after the first starts from the greedy
// construction rather than a shuffled one
const greedyShare = 0.3

// SearchOptions bounds the multi-start search
type SearchOptions struct {
	// Iterations is the number of trials to run
	Iterations int

	// TimeBudget is the global wall-clock limit for all trials (0 = none)
	TimeBudget time.Duration

	// SwapAttemptsPerIteration is the number of consecutive non-improving move attempts
	// after which a trial is converged
	SwapAttemptsPerIteration int

	// TopK is the number of distinct-score solutions retained alongside the best
	TopK int

	// Seed makes every trial reproducible
	Seed int64

	// Workers bounds concurrent trials (0 = GOMAXPROCS)
	Workers int

	// TrialTimeSlice limits each trial's improvement loop. Zero derives a slice from
	// TimeBudget so every round of trials can finish inside the budget; with no budget
	// trials run to convergence.
	TrialTimeSlice time.Duration

	// MaxMovesPerTrial caps the move attempts of each trial (0 = unlimited)
	MaxMovesPerTrial int
}

// DefaultSearchOptions returns the stock search settings
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Iterations:               20,
		TimeBudget:               300 * time.Second,
		SwapAttemptsPerIteration: 50,
		TopK:                     3,
		Seed:                     1,
	}
}

func (o SearchOptions) validate() error {
	var errs error
	if o.Iterations <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("iterations must be positive, got %d", o.Iterations))
	}
	if o.TimeBudget < 0 {
		errs = multierr.Append(errs, fmt.Errorf("time budget must not be negative, got %s", o.TimeBudget))
	}
	if o.SwapAttemptsPerIteration <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("swap attempts per iteration must be positive, got %d", o.SwapAttemptsPerIteration))
	}
	if o.TopK <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("top-k must be positive, got %d", o.TopK))
	}
	if o.Workers < 0 {
		errs = multierr.Append(errs, fmt.Errorf("workers must not be negative, got %d", o.Workers))
	}
	if o.TrialTimeSlice < 0 {
		errs = multierr.Append(errs, fmt.Errorf("trial time slice must not be negative, got %s", o.TrialTimeSlice))
	}
	if o.MaxMovesPerTrial < 0 {
		errs = multierr.Append(errs, fmt.Errorf("max moves per trial must not be negative, got %d", o.MaxMovesPerTrial))
	}
	return errs
}

// Trial is the immutable result of one construct-then-improve attempt
type Trial struct {
	Index    int
	Strategy Strategy
	Solution *Solution
	Stats    LocalSearchStats
}

// Score returns the trial solution's score
func (t *Trial) Score() int {
	return t.Solution.Score()
}

// better orders trials by score, earlier trials winning ties
func (t *Trial) better(other *Trial) bool {
	if t.Score() != other.Score() {
		return t.Score() > other.Score()
	}
	return t.Index < other.Index
}

// SearchResult is what the multi-start controller retains
type SearchResult struct {
	Best            *Trial
	TopK            []*Trial
	TrialsCompleted int
	TrialsAbandoned int

	// TimedOut is set when the budget or the caller's context ended the search early
	TimedOut bool
}

// trialPool is the single synchronisation point that completed trials merge into
type trialPool struct {
	mu        sync.Mutex
	k         int
	best      *Trial
	top       []*Trial // distinct scores, best first
	completed int
	abandoned int
}

func (tp *trialPool) merge(t *Trial) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	tp.completed++
	if tp.best == nil || t.better(tp.best) {
		tp.best = t
	}

	idx := slices.IndexFunc(tp.top, func(o *Trial) bool { return o.Score() == t.Score() })
	if idx >= 0 {
		if t.Index < tp.top[idx].Index {
			tp.top[idx] = t
		}
		return
	}
	tp.top = append(tp.top, t)
	slices.SortFunc(tp.top, func(a, b *Trial) int {
		if a.better(b) {
			return -1
		}
		return 1
	})
	if len(tp.top) > tp.k {
		tp.top = tp.top[:tp.k]
	}
}

func (tp *trialPool) abandon() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.abandoned++
}

// Search runs independent trials across a bounded worker pool and keeps the best and
// top-K solutions. Trials abandoned by the deadline are discarded; when none completes,
// the plain greedy construction is returned so a feasible result always exists.
func Search(ctx context.Context, p *Problem, opts SearchOptions, logger *zap.Logger) (*SearchResult, error) {
	if err := opts.validate(); err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	runCtx := ctx
	if opts.TimeBudget > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.TimeBudget)
		defer cancel()
	}

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	if opts.TrialTimeSlice == 0 {
		opts.TrialTimeSlice = defaultTimeSlice(opts.TimeBudget, opts.Iterations, workers)
	}

	pool := &trialPool{k: opts.TopK}
	var g errgroup.Group
	g.SetLimit(workers)

	skipped := 0
	for i := 0; i < opts.Iterations; i++ {
		if runCtx.Err() != nil {
			skipped = opts.Iterations - i
			break
		}
		g.Go(func() error {
			trial := runTrial(runCtx, p, opts, i)
			if trial.Stats.Cancelled {
				pool.abandon()
				logger.Debug("Trial abandoned", zap.Int("trial", i), zap.Int("score", trial.Score()))
				return nil
			}
			pool.merge(trial)
			logger.Debug("Trial completed",
				zap.Int("trial", i),
				zap.String("strategy", trial.Strategy.String()),
				zap.Int("initial_score", trial.Stats.InitialScore),
				zap.Int("final_score", trial.Stats.FinalScore),
				zap.Int("attempts", trial.Stats.Attempts),
				zap.Int("swap_ins", trial.Stats.SwapIns),
				zap.Int("preference_swaps", trial.Stats.PreferenceSwaps))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SearchResult{
		TrialsCompleted: pool.completed,
		TrialsAbandoned: pool.abandoned + skipped,
	}
	result.TimedOut = result.TrialsAbandoned > 0

	if pool.best == nil {
		logger.Warn("No trial completed within the time budget, falling back to greedy construction")
		fallback := &Trial{Index: -1, Strategy: StrategyGreedy, Solution: ConstructGreedy(p)}
		fallback.Stats = LocalSearchStats{
			Phase:        PhaseConstructed,
			InitialScore: fallback.Score(),
			FinalScore:   fallback.Score(),
		}
		pool.merge(fallback)
	}

	result.Best = pool.best
	result.TopK = pool.top
	return result, nil
}

// defaultTimeSlice splits the budget across the rounds a pool of workers needs for every
// trial, keeping one slice spare for construction and scheduling
func defaultTimeSlice(budget time.Duration, iterations, workers int) time.Duration {
	if budget <= 0 {
		return 0
	}
	rounds := (iterations + workers - 1) / workers
	return budget / time.Duration(rounds+1)
}

// runTrial constructs and improves one solution using only trial-local state
func runTrial(ctx context.Context, p *Problem, opts SearchOptions, index int) *Trial {
	rng := rand.New(rand.NewSource(trialSeed(opts.Seed, index)))

	strategy := StrategyGreedy
	if index > 0 && rng.Float64() >= greedyShare {
		strategy = StrategyRandomized
	}

	sol := Construct(p, strategy, rng)

	lsOpts := LocalSearchOptions{
		SwapAttempts: opts.SwapAttemptsPerIteration,
		MaxMoves:     opts.MaxMovesPerTrial,
	}
	if opts.TrialTimeSlice > 0 {
		lsOpts.Deadline = time.Now().Add(opts.TrialTimeSlice)
	}
	stats := Improve(ctx, sol, rng, lsOpts)

	return &Trial{Index: index, Strategy: strategy, Solution: sol, Stats: stats}
}

// trialSeed derives an independent seed per trial so results do not depend on scheduling
func trialSeed(seed int64, index int) int64 {
	return int64(uint64(seed) ^ (uint64(index+1) * 0x9E3779B97F4A7C15))
}
