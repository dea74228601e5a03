package db

import "context"

// RunStore defines the interface for allocation run history
type RunStore interface {
	InsertRun(ctx context.Context, run *Run, assignments []Assignment, suggestions []Suggestion) error
	GetRuns(ctx context.Context, limit int) ([]Run, error)
	GetAssignments(ctx context.Context, runID string) ([]Assignment, error)
	GetSuggestions(ctx context.Context, runID string) ([]Suggestion, error)
}
