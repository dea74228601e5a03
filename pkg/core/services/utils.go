package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/hut-allocator/internal/config"
	"github.com/jakechorley/hut-allocator/pkg/core/allocator"
	"github.com/jakechorley/hut-allocator/pkg/db"
	"github.com/jakechorley/hut-allocator/pkg/records"
)

// buildAllocationConfig converts the application config into allocator settings,
// expanding closures into per-night capacity overrides
func buildAllocationConfig(cfg *config.Config, logger *zap.Logger) (allocator.AllocationConfig, error) {
	season, err := allocator.ParseSeason(cfg.Season.Start, cfg.Season.End)
	if err != nil {
		return allocator.AllocationConfig{}, fmt.Errorf("invalid season: %w", err)
	}

	huts := make([]allocator.Hut, len(cfg.Huts))
	for i, hut := range cfg.Huts {
		huts[i] = allocator.Hut{ID: hut.Name, Capacity: hut.Capacity}
	}

	overrides, err := convertClosures(cfg.Closures, season, logger)
	if err != nil {
		return allocator.AllocationConfig{}, fmt.Errorf("failed to convert closures: %w", err)
	}

	return allocator.AllocationConfig{
		Huts:            huts,
		Season:          season,
		Scores:          allocator.ScoreTable(cfg.PreferenceScores),
		AssignmentBonus: cfg.AssignmentBonus,
		Overrides:       overrides,
		Search: allocator.SearchOptions{
			Iterations:               cfg.Optimizer.Iterations,
			TimeBudget:               cfg.Optimizer.Timeout,
			SwapAttemptsPerIteration: cfg.Optimizer.SwapAttemptsPerIteration,
			TopK:                     cfg.Optimizer.TopK,
			Seed:                     cfg.Optimizer.Seed,
			Workers:                  cfg.Optimizer.Workers,
			TrialTimeSlice:           cfg.Optimizer.TrialTimeSlice,
			MaxMovesPerTrial:         cfg.Optimizer.MaxMovesPerTrial,
		},
		MaxSuggestions: cfg.Optimizer.MaxSuggestions,
		Logger:         logger,
	}, nil
}

// convertClosures expands each closure RRULE over the season nights.
// Rules are anchored at the season start; when closures overlap the later one wins.
func convertClosures(closures []config.Closure, season allocator.Season, logger *zap.Logger) ([]allocator.CapacityOverride, error) {
	var overrides []allocator.CapacityOverride
	lastNight := season.Date(season.Nights() - 1)

	for i, closure := range closures {
		rule, err := rrule.StrToRRule(closure.RRule)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rrule for closure %d: %w", i, err)
		}
		rule.DTStart(season.Start)

		nights := rule.Between(season.Start, lastNight, true)
		for _, night := range nights {
			overrides = append(overrides, allocator.CapacityOverride{
				HutID:    closure.Hut,
				Night:    night,
				Capacity: closure.Capacity,
			})
		}

		logger.Debug("Converted closure",
			zap.Int("index", i),
			zap.String("hut", closure.Hut),
			zap.String("rrule", closure.RRule),
			zap.Int("nights", len(nights)))
	}

	return overrides, nil
}

// hutCapacities maps hut names to base capacity, used to resolve ENTIRE party sizes
func hutCapacities(cfg *config.Config) map[string]int {
	capacities := make(map[string]int, len(cfg.Huts))
	for _, hut := range cfg.Huts {
		capacities[hut.Name] = hut.Capacity
	}
	return capacities
}

// runRecords converts an outcome into the records persisted for a run
func runRecords(env string, seed int64, outcome *allocator.AllocationOutcome) (*db.Run, []db.Assignment, []db.Suggestion) {
	season := outcome.Problem.Season()
	run := &db.Run{
		ID:              uuid.NewString(),
		Env:             env,
		SeasonStart:     season.Start.Format(allocator.DateLayout),
		SeasonEnd:       season.End.Format(allocator.DateLayout),
		Seed:            seed,
		Score:           outcome.Best.Score(),
		Requesters:      len(outcome.Problem.Requesters()),
		Assigned:        outcome.Best.AssignedCount(),
		TrialsCompleted: outcome.TrialsCompleted,
		TrialsAbandoned: outcome.TrialsAbandoned,
		TimedOut:        outcome.TimedOut,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	var assignments []db.Assignment
	for _, status := range outcome.Best.Statuses() {
		if !status.Assigned {
			continue
		}
		for _, req := range status.Requests {
			assignments = append(assignments, db.Assignment{
				ID:            uuid.NewString(),
				RunID:         run.ID,
				RequesterID:   req.RequesterID,
				Rank:          req.Rank,
				HutID:         req.HutID,
				StartDate:     req.Start.Format(allocator.DateLayout),
				EndDate:       req.End.Format(allocator.DateLayout),
				PartySize:     req.PartySize,
				TraverseGroup: req.TraverseGroup,
			})
		}
	}

	var suggestions []db.Suggestion
	for _, alt := range outcome.Alternatives {
		for _, s := range alt.Suggestions {
			huts, dates := records.FormatStays(s.Stays)
			suggestions = append(suggestions, db.Suggestion{
				ID:          uuid.NewString(),
				RunID:       run.ID,
				RequesterID: alt.RequesterID,
				Huts:        huts,
				Dates:       dates,
				PartySize:   s.PartySize,
				Note:        s.Note,
			})
		}
	}

	return run, assignments, suggestions
}
