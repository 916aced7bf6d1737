package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--format", format}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestRun_Text(t *testing.T) {
	out, err := execute(t, "text", "run", "testdata/scenarios", "--runs", "3", "--seed", "1", "--policy", "wf")
	require.NoError(t, err)

	assert.Contains(t, out, "scenario counter")
	assert.Contains(t, out, "c=2  3")
	assert.Contains(t, out, "scenario two-stores")
}

func TestRun_JSON(t *testing.T) {
	out, err := execute(t, "json", "run", "testdata/scenarios", "--runs", "2", "--scenario", "counter")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var reports []RunReport
	require.NoError(t, json.Unmarshal(payload, &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "counter", reports[0].Scenario)
	assert.Equal(t, uint64(2), reports[0].Executions)
	assert.Equal(t, map[string]int{"c=2": 2}, reports[0].Outcomes)
}

func TestRun_ArchivesToDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "weft.db")

	out, err := execute(t, "text", "run", "testdata/scenarios", "--scenario", "counter", "--runs", "1", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "archived as")

	listOut, err := execute(t, "text", "runs", "list", "counter", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, listOut, "policy wf")
}

func TestRun_UnknownScenario(t *testing.T) {
	_, err := execute(t, "text", "run", "testdata/scenarios", "--scenario", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_BadPolicy(t *testing.T) {
	_, err := execute(t, "text", "run", "testdata/scenarios", "--policy", "eager")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_MissingDirectory(t *testing.T) {
	_, err := execute(t, "text", "run", "testdata/nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEstimate_Text(t *testing.T) {
	out, err := execute(t, "text", "estimate", "testdata/scenarios", "--scenario", "two-stores", "--runs", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "scenario two-stores:")
	assert.Contains(t, out, "distinct outcomes in 20 sampled executions")
}

func TestEstimate_JSON(t *testing.T) {
	out, err := execute(t, "json", "estimate", "testdata/scenarios", "--scenario", "counter", "--runs", "5")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var reports []EstimateReport
	require.NoError(t, json.Unmarshal(payload, &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, uint64(5), reports[0].Runs)
	assert.Equal(t, 1, reports[0].DistinctOutcomes, "a single-threaded scenario has one reachable state")
}

func TestRunsShow_NotFound(t *testing.T) {
	db := filepath.Join(t.TempDir(), "weft.db")

	_, err := execute(t, "text", "runs", "show", "missing-id", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
