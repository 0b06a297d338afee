package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/criteria/internal/ir"
)

// Snapshot renders what a scenario run produced as canonical JSON: the
// rendered query, the SQL it compiled to and the ids it selected.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	params := make([]any, len(result.Params))
	copy(params, result.Params)

	ids := make([]any, len(result.SQL))
	for i, id := range result.SQL {
		ids[i] = id
	}

	snapshot := map[string]any{
		"scenario": scenarioName,
		"query":    result.Query,
		"ids":      ids,
		"params":   params,
	}
	if result.Statement != "" {
		snapshot["sql"] = result.Statement
	}

	data, err := ir.MarshalCanonical(snapshot)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
