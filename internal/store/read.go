package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Run is an archived exploration with its outcome histogram.
type Run struct {
	ID         string
	Scenario   string
	Policy     string
	Seed       int64
	Executions uint64
	Blocked    uint64
	CreatedAt  string
	Outcomes   map[string]int
}

// ErrRunNotFound is returned when no run exists for the requested id.
var ErrRunNotFound = errors.New("run not found")

// ReadRun loads a single archived run with its outcomes.
func (s *Store) ReadRun(ctx context.Context, id string) (*Run, error) {
	run := &Run{Outcomes: make(map[string]int)}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, scenario, policy, seed, executions, blocked, created_at
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Scenario, &run.Policy, &run.Seed, &run.Executions, &run.Blocked, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT outcome, count FROM outcomes
		WHERE run_id = ?
		ORDER BY outcome ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("read run outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		run.Outcomes[outcome] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return run, nil
}

// ListRuns returns the archived runs for a scenario, newest first.
// Outcome histograms are not loaded; use ReadRun for the full record.
func (s *Store) ListRuns(ctx context.Context, scenario string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario, policy, seed, executions, blocked, created_at
		FROM runs
		WHERE scenario = ?
		ORDER BY created_at DESC, id DESC
	`, scenario)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Scenario, &run.Policy, &run.Seed, &run.Executions, &run.Blocked, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
