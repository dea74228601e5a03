package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/hut-allocator/internal/config"
	"github.com/jakechorley/hut-allocator/pkg/core/allocator"
	"github.com/jakechorley/hut-allocator/pkg/db"
	"github.com/jakechorley/hut-allocator/pkg/records"
)

// RequestSource loads the submitted requests; capacities resolves ENTIRE party sizes
type RequestSource interface {
	LoadRequests(ctx context.Context, capacities map[string]int) ([]allocator.Request, records.Contacts, error)
}

// CSVSource reads requests from a local CSV file
type CSVSource struct {
	Path string
}

func (s CSVSource) LoadRequests(ctx context.Context, capacities map[string]int) ([]allocator.Request, records.Contacts, error) {
	return records.ReadRequestsCSV(s.Path, capacities)
}

// SheetReader reads every row of a spreadsheet tab
type SheetReader interface {
	ReadRows(ctx context.Context, spreadsheetID, tab string) ([][]string, error)
}

// SheetSource reads requests from a Google Sheets tab
type SheetSource struct {
	Reader        SheetReader
	SpreadsheetID string
	Tab           string
}

func (s SheetSource) LoadRequests(ctx context.Context, capacities map[string]int) ([]allocator.Request, records.Contacts, error) {
	raw, err := s.Reader.ReadRows(ctx, s.SpreadsheetID, s.Tab)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read request sheet: %w", err)
	}
	return records.ParseRequests(raw, capacities)
}

// AllocateOptions controls what AllocateHuts does with the outcome
type AllocateOptions struct {
	// Env is recorded with the persisted run
	Env string

	// OutputDir receives the CSV outputs; empty skips writing files
	OutputDir string

	// DryRun skips persisting the run even when a store is given
	DryRun bool
}

// AllocationResult is what AllocateHuts produced
type AllocationResult struct {
	Outcome  *allocator.AllocationOutcome
	Contacts records.Contacts

	// RunID is empty when the run was not persisted
	RunID string

	// Files lists the CSV outputs written
	Files []string
}

// AllocateHuts loads the requests, runs the allocator, writes the CSV outputs and persists the run.
// store may be nil, in which case nothing is persisted.
func AllocateHuts(
	ctx context.Context,
	source RequestSource,
	store db.RunStore,
	cfg *config.Config,
	logger *zap.Logger,
	opts AllocateOptions,
) (*AllocationResult, error) {
	allocConfig, err := buildAllocationConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("Loading requests")
	requests, contacts, err := source.LoadRequests(ctx, hutCapacities(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}
	logger.Info("Loaded requests", zap.Int("count", len(requests)), zap.Int("contacts", len(contacts)))

	outcome, err := allocator.Allocate(ctx, allocConfig, requests)
	if err != nil {
		return nil, fmt.Errorf("allocation failed: %w", err)
	}

	if outcome.TimedOut {
		logger.Warn("Time budget ended the search early",
			zap.Int("trials_completed", outcome.TrialsCompleted),
			zap.Int("trials_abandoned", outcome.TrialsAbandoned))
	}
	if outcome.NoFeasibleAssignment {
		logger.Warn("No requester could be assigned")
	}

	result := &AllocationResult{Outcome: outcome, Contacts: contacts}

	if opts.OutputDir != "" {
		files, err := records.WriteOutcome(opts.OutputDir, outcome)
		if err != nil {
			return nil, fmt.Errorf("failed to write outputs: %w", err)
		}
		result.Files = files
		logger.Info("Wrote outputs", zap.String("dir", opts.OutputDir), zap.Int("files", len(files)))
	}

	if store == nil || opts.DryRun {
		logger.Debug("Skipping run persistence", zap.Bool("dry_run", opts.DryRun))
		return result, nil
	}

	run, assignments, suggestions := runRecords(opts.Env, cfg.Optimizer.Seed, outcome)
	if err := store.InsertRun(ctx, run, assignments, suggestions); err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}
	result.RunID = run.ID

	logger.Info("Saved run",
		zap.String("run_id", run.ID),
		zap.Int("assignments", len(assignments)),
		zap.Int("suggestions", len(suggestions)))

	return result, nil
}
