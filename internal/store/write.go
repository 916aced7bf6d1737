package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/weftlabs/weft/internal/litmus"
)

// SaveResult archives an exploration result and returns the run id.
// The run row and its outcome rows are written in one transaction so a
// partial archive can never be observed.
func (s *Store) SaveResult(ctx context.Context, res *litmus.Result) (string, error) {
	id := uuid.Must(uuid.NewV7()).String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save result: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, policy, seed, executions, blocked)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, res.Scenario, string(res.Policy), res.Seed, res.Executions, res.Blocked)
	if err != nil {
		return "", fmt.Errorf("save result: insert run: %w", err)
	}

	for outcome, count := range res.Outcomes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO outcomes (run_id, outcome, count)
			VALUES (?, ?, ?)
		`, id, outcome, count)
		if err != nil {
			return "", fmt.Errorf("save result: insert outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save result: %w", err)
	}
	return id, nil
}
