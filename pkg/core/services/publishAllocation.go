package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/hut-allocator/internal/config"
	"github.com/jakechorley/hut-allocator/pkg/core/allocator"
	"github.com/jakechorley/hut-allocator/pkg/records"
)

// TabWriter writes rows into a spreadsheet tab, creating it if needed
type TabWriter interface {
	WriteTab(ctx context.Context, spreadsheetID, tab string, rows [][]string) error
}

// PublishedTabs names the tabs written by PublishAllocation
type PublishedTabs struct {
	Allocation   string
	Alternatives string
	Occupancy    string
}

// TabsFor returns the tab names used for a run label
func TabsFor(label string) PublishedTabs {
	return PublishedTabs{
		Allocation:   label + " Allocation",
		Alternatives: label + " Alternatives",
		Occupancy:    label + " Occupancy",
	}
}

// PublishAllocation writes the best allocation, the alternatives and the occupancy summary
// into the results spreadsheet, one tab each, prefixed by label
func PublishAllocation(
	ctx context.Context,
	publisher TabWriter,
	cfg *config.Config,
	logger *zap.Logger,
	outcome *allocator.AllocationOutcome,
	label string,
) (*PublishedTabs, error) {
	sheetID := cfg.Sheets.ResultsSheetID
	if sheetID == "" {
		return nil, fmt.Errorf("no results spreadsheet configured (sheets.resultsSheetID)")
	}

	tabs := TabsFor(label)
	writes := []struct {
		tab  string
		rows [][]string
	}{
		{tabs.Allocation, records.AllocationRows(outcome.Best)},
		{tabs.Alternatives, records.AlternativesRows(outcome.Alternatives)},
		{tabs.Occupancy, records.OccupancyRows(outcome.Best)},
	}

	for _, w := range writes {
		logger.Debug("Writing tab", zap.String("tab", w.tab), zap.Int("rows", len(w.rows)))
		if err := publisher.WriteTab(ctx, sheetID, w.tab, w.rows); err != nil {
			return nil, fmt.Errorf("failed to publish %s: %w", w.tab, err)
		}
	}

	logger.Info("Published allocation", zap.String("spreadsheet_id", sheetID), zap.String("label", label))
	return &tabs, nil
}
