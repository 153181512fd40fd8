package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalScenario = `name: minimal
description: smallest valid scenario
topology: |
  nodes: []
script: |
  HOME pump1
assertions:
  - type: trace_count
    command: HOME
    count: 1
`

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/stirred_transfer.yaml")
	require.NoError(t, err)
	assert.Equal(t, "stirred_transfer", s.Name)
	assert.Len(t, s.Assertions, 5)
	assert.Contains(t, s.Script, "MOVE flask_water reactor 10")
	assert.Contains(t, s.Topology, "id: pump1")
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	path := writeScenarioFile(t, minimalScenario+"assertion: typo\n")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse scenario")
}

func TestLoadScenarioValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing name",
			content: "description: d\ntopology: t\nscript: s\nassertions:\n  - type: trace_count\n    command: HOME\n",
			want:    "name is required",
		},
		{
			name:    "missing topology",
			content: "name: n\ndescription: d\nscript: s\nassertions:\n  - type: trace_count\n    command: HOME\n",
			want:    "topology is required",
		},
		{
			name:    "missing script",
			content: "name: n\ndescription: d\ntopology: t\nassertions:\n  - type: trace_count\n    command: HOME\n",
			want:    "script is required",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\ntopology: t\nscript: s\n",
			want:    "assertions list is required",
		},
		{
			name:    "unknown assertion type",
			content: "name: n\ndescription: d\ntopology: t\nscript: s\nassertions:\n  - type: trace_sorted\n",
			want:    `unknown assertion type "trace_sorted"`,
		},
		{
			name:    "trace_contains without command",
			content: "name: n\ndescription: d\ntopology: t\nscript: s\nassertions:\n  - type: trace_contains\n",
			want:    "command is required",
		},
		{
			name:    "trace_order with one command",
			content: "name: n\ndescription: d\ntopology: t\nscript: s\nassertions:\n  - type: trace_order\n    commands: [HOME]\n",
			want:    "at least two commands",
		},
		{
			name:    "final_state without expect",
			content: "name: n\ndescription: d\ntopology: t\nscript: s\nassertions:\n  - type: final_state\n    node: reactor\n",
			want:    "expect is required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenarioFile(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
