package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/hut-allocator/internal/config"
	"github.com/jakechorley/hut-allocator/pkg/core/allocator"
)

// ValidationReport summarises a request set without running the search
type ValidationReport struct {
	Requests   int
	Requesters int

	// Warnings lists every request that can never be assigned
	Warnings []*allocator.InfeasibleRequestError
}

// ValidateRequests loads and compiles the requests against the configuration.
// Malformed rows and configuration problems are errors; unsatisfiable requests are warnings.
func ValidateRequests(ctx context.Context, source RequestSource, cfg *config.Config, logger *zap.Logger) (*ValidationReport, error) {
	allocConfig, err := buildAllocationConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	requests, _, err := source.LoadRequests(ctx, hutCapacities(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}

	problem, err := allocator.NewProblem(allocator.ProblemConfig{
		Huts:            allocConfig.Huts,
		Season:          allocConfig.Season,
		Scores:          allocConfig.Scores,
		AssignmentBonus: allocConfig.AssignmentBonus,
		Overrides:       allocConfig.Overrides,
	}, requests)
	if err != nil {
		return nil, err
	}

	report := &ValidationReport{
		Requests:   len(requests),
		Requesters: len(problem.Requesters()),
		Warnings:   problem.Warnings(),
	}

	for _, w := range report.Warnings {
		logger.Warn("Request can never be assigned",
			zap.String("requester", w.Request.RequesterID),
			zap.Int("rank", w.Request.Rank),
			zap.String("reason", w.Reason))
	}
	logger.Info("Requests validated",
		zap.Int("requests", report.Requests),
		zap.Int("requesters", report.Requesters),
		zap.Int("warnings", len(report.Warnings)))

	return report, nil
}
