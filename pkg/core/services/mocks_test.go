package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jakechorley/hut-allocator/internal/config"
	"github.com/jakechorley/hut-allocator/pkg/core/allocator"
	"github.com/jakechorley/hut-allocator/pkg/db"
	"github.com/jakechorley/hut-allocator/pkg/records"
)

// mockRunStore implements db.RunStore for testing
type mockRunStore struct {
	runs        []db.Run
	assignments map[string][]db.Assignment
	suggestions map[string][]db.Suggestion

	insertErr error
	getErr    error
}

func (m *mockRunStore) InsertRun(ctx context.Context, run *db.Run, assignments []db.Assignment, suggestions []db.Suggestion) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.assignments == nil {
		m.assignments = make(map[string][]db.Assignment)
		m.suggestions = make(map[string][]db.Suggestion)
	}
	m.runs = append(m.runs, *run)
	m.assignments[run.ID] = assignments
	m.suggestions[run.ID] = suggestions
	return nil
}

func (m *mockRunStore) GetRuns(ctx context.Context, limit int) ([]db.Run, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if limit > 0 && limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func (m *mockRunStore) GetAssignments(ctx context.Context, runID string) ([]db.Assignment, error) {
	return m.assignments[runID], nil
}

func (m *mockRunStore) GetSuggestions(ctx context.Context, runID string) ([]db.Suggestion, error) {
	return m.suggestions[runID], nil
}

// mockSource implements RequestSource for testing
type mockSource struct {
	requests []allocator.Request
	contacts records.Contacts
	err      error
}

func (m *mockSource) LoadRequests(ctx context.Context, capacities map[string]int) ([]allocator.Request, records.Contacts, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.requests, m.contacts, nil
}

// mockSheets implements SheetReader and TabWriter for testing
type mockSheets struct {
	rows    map[string][][]string
	written map[string][][]string
	order   []string

	writeErr error
}

func (m *mockSheets) ReadRows(ctx context.Context, spreadsheetID, tab string) ([][]string, error) {
	rows, ok := m.rows[spreadsheetID+"/"+tab]
	if !ok {
		return nil, fmt.Errorf("tab %s not found", tab)
	}
	return rows, nil
}

func (m *mockSheets) WriteTab(ctx context.Context, spreadsheetID, tab string, rows [][]string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	if m.written == nil {
		m.written = make(map[string][][]string)
	}
	key := spreadsheetID + "/" + tab
	m.written[key] = rows
	m.order = append(m.order, key)
	return nil
}

type sentEmail struct {
	to, subject, body string
}

// mockMailer implements Mailer for testing
type mockMailer struct {
	sent   []sentEmail
	failTo map[string]bool
}

func (m *mockMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	if m.failTo[to] {
		return fmt.Errorf("mailbox unavailable")
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

func testConfig() *config.Config {
	optimizer := config.DefaultOptimizer()
	optimizer.Iterations = 3
	optimizer.Workers = 1
	return &config.Config{
		Huts:             []config.Hut{{Name: "Bradley", Capacity: 15}, {Name: "Benson", Capacity: 12}},
		Season:           config.Season{Start: "2025-12-01", End: "2025-12-31"},
		PreferenceScores: config.DefaultPreferenceScores(),
		Optimizer:        optimizer,
		Sheets:           config.Sheets{RequestsSheetID: "requests", RequestsTab: "Form responses", ResultsSheetID: "results"},
	}
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(allocator.DateLayout, s)
	require.NoError(t, err)
	return d
}

// contendedRequests has two parties that cannot share Bradley on the same nights
func contendedRequests(t *testing.T) []allocator.Request {
	return []allocator.Request{
		{RequesterID: "Amy", Rank: 1, HutID: "Bradley", Start: day(t, "2025-12-01"), End: day(t, "2025-12-03"), PartySize: 12},
		{RequesterID: "Bob", Rank: 1, HutID: "Bradley", Start: day(t, "2025-12-01"), End: day(t, "2025-12-03"), PartySize: 10},
	}
}
