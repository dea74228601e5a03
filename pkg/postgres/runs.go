package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/hut-allocator/pkg/db"
)

const dateLayout = "2006-01-02"

// InsertRun stores a run together with its assignments and suggestions in one transaction
func (d *DB) InsertRun(ctx context.Context, run *db.Run, assignments []db.Assignment, suggestions []db.Suggestion) error {
	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO allocation_run (id, env, season_start, season_end, seed, score, requesters,
				assigned, trials_completed, trials_abandoned, timed_out)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, run.ID, run.Env, run.SeasonStart, run.SeasonEnd, run.Seed, run.Score, run.Requesters,
			run.Assigned, run.TrialsCompleted, run.TrialsAbandoned, run.TimedOut)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		batch := &pgx.Batch{}
		for _, a := range assignments {
			var traverseGroup *string
			if a.TraverseGroup != "" {
				traverseGroup = &a.TraverseGroup
			}
			batch.Queue(`
				INSERT INTO assignment (id, run_id, requester_id, rank, hut_id, start_date, end_date, party_size, traverse_group)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, a.ID, a.RunID, a.RequesterID, a.Rank, a.HutID, a.StartDate, a.EndDate, a.PartySize, traverseGroup)
		}
		for _, s := range suggestions {
			batch.Queue(`
				INSERT INTO suggestion (id, run_id, requester_id, huts, dates, party_size, note)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, s.ID, s.RunID, s.RequesterID, s.Huts, s.Dates, s.PartySize, s.Note)
		}
		if batch.Len() == 0 {
			return nil
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert run results: %w", err)
		}
		return nil
	})
}

// GetRuns retrieves the most recent runs, newest first. limit <= 0 returns every run.
func (d *DB) GetRuns(ctx context.Context, limit int) ([]db.Run, error) {
	query := `
		SELECT id, env, season_start, season_end, seed, score, requesters, assigned,
			trials_completed, trials_abandoned, timed_out, created_at
		FROM allocation_run
		ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []db.Run
	for rows.Next() {
		var r db.Run
		var seasonStart, seasonEnd, createdAt time.Time
		if err := rows.Scan(&r.ID, &r.Env, &seasonStart, &seasonEnd, &r.Seed, &r.Score, &r.Requesters, &r.Assigned,
			&r.TrialsCompleted, &r.TrialsAbandoned, &r.TimedOut, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.SeasonStart = seasonStart.Format(dateLayout)
		r.SeasonEnd = seasonEnd.Format(dateLayout)
		r.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// GetAssignments retrieves the assigned legs of a run
func (d *DB) GetAssignments(ctx context.Context, runID string) ([]db.Assignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, run_id, requester_id, rank, hut_id, start_date, end_date, party_size, traverse_group
		FROM assignment
		WHERE run_id = $1
		ORDER BY requester_id, start_date
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []db.Assignment
	for rows.Next() {
		var a db.Assignment
		var start, end time.Time
		var traverseGroup *string
		if err := rows.Scan(&a.ID, &a.RunID, &a.RequesterID, &a.Rank, &a.HutID, &start, &end, &a.PartySize, &traverseGroup); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.StartDate = start.Format(dateLayout)
		a.EndDate = end.Format(dateLayout)
		if traverseGroup != nil {
			a.TraverseGroup = *traverseGroup
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

// GetSuggestions retrieves the alternatives offered in a run
func (d *DB) GetSuggestions(ctx context.Context, runID string) ([]db.Suggestion, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, run_id, requester_id, huts, dates, party_size, note
		FROM suggestion
		WHERE run_id = $1
		ORDER BY requester_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}

	suggestions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (db.Suggestion, error) {
		var s db.Suggestion
		err := row.Scan(&s.ID, &s.RunID, &s.RequesterID, &s.Huts, &s.Dates, &s.PartySize, &s.Note)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan suggestions: %w", err)
	}

	return suggestions, nil
}
