package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the golden form of a scenario result: indented JSON
// with sorted keys, HTML characters unescaped.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	snapshot := map[string]any{
		"scenario_name": scenario.Name,
		"items":         result.Items,
	}
	if result.Pipeline != "" {
		snapshot["pipeline"] = result.Pipeline
	}
	if result.Rejection != "" {
		snapshot["rejection"] = result.Rejection
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario, fails the test on any scenario
// error and compares the snapshot with testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	data, err := Snapshot(scenario, result)
	if err != nil {
		t.Fatalf("snapshot %s: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result
}
