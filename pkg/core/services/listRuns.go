package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/hut-allocator/pkg/db"
)

// RunDetail is a persisted run with its assignments and suggestions
type RunDetail struct {
	Run         db.Run
	Assignments []db.Assignment
	Suggestions []db.Suggestion
}

// ListRuns returns the most recent runs, newest first
func ListRuns(ctx context.Context, store db.RunStore, logger *zap.Logger, limit int) ([]db.Run, error) {
	runs, err := store.GetRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}
	logger.Debug("Fetched runs", zap.Int("count", len(runs)), zap.Int("limit", limit))
	return runs, nil
}

// GetRun returns one run with everything it stored
func GetRun(ctx context.Context, store db.RunStore, logger *zap.Logger, runID string) (*RunDetail, error) {
	runs, err := store.GetRuns(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}

	detail := &RunDetail{}
	found := false
	for _, r := range runs {
		if r.ID == runID {
			detail.Run = r
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("run %s not found", runID)
	}

	if detail.Assignments, err = store.GetAssignments(ctx, runID); err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}
	if detail.Suggestions, err = store.GetSuggestions(ctx, runID); err != nil {
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}

	logger.Debug("Fetched run",
		zap.String("run_id", runID),
		zap.Int("assignments", len(detail.Assignments)),
		zap.Int("suggestions", len(detail.Suggestions)))
	return detail, nil
}
