package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/hut-allocator/pkg/records"
)

func TestPublishAllocation(t *testing.T) {
	result, err := AllocateHuts(t.Context(), &mockSource{requests: contendedRequests(t)}, nil, testConfig(), zap.NewNop(), AllocateOptions{})
	require.NoError(t, err)
	sheets := &mockSheets{}

	tabs, err := PublishAllocation(t.Context(), sheets, testConfig(), zap.NewNop(), result.Outcome, "2025-12")
	require.NoError(t, err)

	assert.Equal(t, "2025-12 Allocation", tabs.Allocation)
	assert.Equal(t, []string{"results/2025-12 Allocation", "results/2025-12 Alternatives", "results/2025-12 Occupancy"}, sheets.order)
	assert.Equal(t, records.AllocationRows(result.Outcome.Best), sheets.written["results/2025-12 Allocation"])
	assert.Len(t, sheets.written["results/2025-12 Occupancy"], 3, "header plus two Bradley nights")
}

func TestPublishAllocation_Errors(t *testing.T) {
	result, err := AllocateHuts(t.Context(), &mockSource{requests: contendedRequests(t)}, nil, testConfig(), zap.NewNop(), AllocateOptions{})
	require.NoError(t, err)

	t.Run("no results sheet", func(t *testing.T) {
		cfg := testConfig()
		cfg.Sheets.ResultsSheetID = ""
		_, err := PublishAllocation(t.Context(), &mockSheets{}, cfg, zap.NewNop(), result.Outcome, "run")
		assert.ErrorContains(t, err, "no results spreadsheet configured")
	})

	t.Run("write failure", func(t *testing.T) {
		_, err := PublishAllocation(t.Context(), &mockSheets{writeErr: errors.New("quota exceeded")}, testConfig(), zap.NewNop(), result.Outcome, "run")
		assert.ErrorContains(t, err, "failed to publish run Allocation: quota exceeded")
	})
}
