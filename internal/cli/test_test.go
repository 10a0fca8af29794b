package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: cheap
description: Products under a euro
products:
  - { Name: Snickers, Price: "1.50", Category: Candy }
  - { Name: Cola, Price: "0.99", Category: Drink }
operations:
  - name: where
    arguments:
      conditions:
        - { Field: Price, Operator: Less, Value: ["1"] }
  - name: select
    arguments: Name
expect:
  items: [Cola]
`

const failingScenario = `name: wrong
description: Expects the wrong product
products:
  - { Name: Snickers, Price: "1.50", Category: Candy }
operations: []
expect:
  count: 2
`

func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestTest_UpdateThenCompare(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"cheap.yaml": passingScenario})

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ cheap (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "cheap.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"Cola"`)
	assert.Contains(t, string(golden), `where Price < 1`)

	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), "", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "cheap.golden"), []byte("{}\n"), 0o644))
	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), "", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")
}

func TestTest_Failures(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"cheap.yaml":  passingScenario,
		"wrong.yaml":  failingScenario,
		"broken.yaml": "name: broken\n",
	})

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), "", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 2, resp.Data.Failed)
}

func TestTest_Filter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"cheap.yaml": passingScenario,
		"wrong.yaml": failingScenario,
	})

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "", dir, "--filter", "ch*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")

	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), "", dir, "--filter", "none*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTest_MissingDirectory(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_RepositoryScenarios(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ All scenarios passed")
}
