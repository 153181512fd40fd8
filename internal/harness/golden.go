package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file shape for a scenario run: the fully
// resolved command stream and the final rig state. Snapshot maps
// marshal with sorted keys, so the encoding is deterministic.
type TraceSnapshot struct {
	ScenarioName string   `json:"scenario_name"`
	Commands     []string `json:"commands"`
	Final        any      `json:"final"`
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{name}.golden. Regenerate with go test -update.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already-obtained result against the named
// golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Commands:     make([]string, len(result.Trace)),
		Final:        result.Final,
	}
	for i, ev := range result.Trace {
		snapshot.Commands[i] = ev.Command
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
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
