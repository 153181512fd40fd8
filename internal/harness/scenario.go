package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one end-to-end conformance case: a rig, a procedure, and
// the claims to check after the procedure has run.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Topology is the rig definition, inline YAML in the same format
	// the graph loader accepts from disk.
	Topology string `yaml:"topology"`

	// Script is the ChASM procedure to dispatch.
	Script string `yaml:"script"`

	// Assertions are checked against the trace and final state after
	// the run finishes.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion is a single claim about a finished run.
type Assertion struct {
	// Type selects the check:
	//   trace_contains  the exact command text appears in the trace
	//   trace_order     the commands appear in this relative order
	//   trace_count     commands with this verb or prefix appear Count times
	//   final_state     a device's final state has these field values
	Type string `yaml:"type"`

	// Command is the rendered command text (trace_contains) or a
	// prefix such as a bare verb (trace_count).
	Command string `yaml:"command,omitempty"`

	// Commands is the expected relative order for trace_order. The
	// commands need not be consecutive in the trace.
	Commands []string `yaml:"commands,omitempty"`

	// Count is the expected number of matches for trace_count.
	Count int `yaml:"count,omitempty"`

	// Node names the device or vessel for final_state.
	Node string `yaml:"node,omitempty"`

	// Expect holds expected state fields for final_state, keyed by the
	// snapshot's JSON field names. Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`
}

const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so a typo like "assertion:" fails loudly instead of
// silently checking nothing.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var scenario Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Topology == "" {
		return fmt.Errorf("topology is required")
	}
	if s.Script == "" {
		return fmt.Errorf("script is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Command == "" {
			return fmt.Errorf("assertions[%d]: command is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Commands) < 2 {
			return fmt.Errorf("assertions[%d]: trace_order needs at least two commands", index)
		}
	case AssertTraceCount:
		if a.Command == "" {
			return fmt.Errorf("assertions[%d]: command is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertFinalState:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
