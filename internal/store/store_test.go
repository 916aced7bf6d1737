package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/litmus"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "weft.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult() *litmus.Result {
	return &litmus.Result{
		Scenario:   "mutex-counter",
		Policy:     engine.PolicyRandom,
		Seed:       42,
		Executions: 30,
		Blocked:    0,
		Outcomes:   map[string]int{"c=2 m=0": 30},
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weft.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, s2.Close())
}

func TestSaveAndReadRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveResult(ctx, sampleResult())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run, err := s.ReadRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "mutex-counter", run.Scenario)
	assert.Equal(t, "random", run.Policy)
	assert.Equal(t, int64(42), run.Seed)
	assert.Equal(t, uint64(30), run.Executions)
	assert.Equal(t, map[string]int{"c=2 m=0": 30}, run.Outcomes)
	assert.NotEmpty(t, run.CreatedAt)
}

func TestReadRun_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.SaveResult(ctx, sampleResult())
	require.NoError(t, err)
	second, err := s.SaveResult(ctx, sampleResult())
	require.NoError(t, err)

	other := sampleResult()
	other.Scenario = "store-buffer"
	_, err = s.SaveResult(ctx, other)
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx, "mutex-counter")
	require.NoError(t, err)
	require.Len(t, runs, 2)

	ids := []string{runs[0].ID, runs[1].ID}
	assert.Contains(t, ids, first)
	assert.Contains(t, ids, second)

	empty, err := s.ListRuns(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
