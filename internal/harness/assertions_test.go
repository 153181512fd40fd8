package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemputer/chempiler/internal/rig"
)

func sampleResult() *Result {
	return &Result{
		Pass: true,
		Trace: []TraceEvent{
			{Seq: 0, Command: "HOME pump1 50"},
			{Seq: 1, Command: "MOVE flask_water reactor 10 50 50 50"},
			{Seq: 2, Command: "START_STIR reactor"},
			{Seq: 3, Command: "MOVE reactor waste 5 50 50 50"},
		},
		Final: rig.Snapshot{
			"reactor": {Volume: 5, Stirring: true, Temperature: 80},
			"waste":   {Volume: 5},
			"pump1":   {},
		},
	}
}

func TestAssertTraceContains(t *testing.T) {
	r := sampleResult()
	require.NoError(t, evaluate(r, Assertion{
		Type:    AssertTraceContains,
		Command: "START_STIR reactor",
	}))

	err := evaluate(r, Assertion{Type: AssertTraceContains, Command: "STOP_STIR reactor"})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, err.Error(), "STOP_STIR reactor")
	assert.Contains(t, err.Error(), "[2] START_STIR reactor")
}

func TestAssertTraceOrder(t *testing.T) {
	r := sampleResult()
	require.NoError(t, evaluate(r, Assertion{
		Type:     AssertTraceOrder,
		Commands: []string{"HOME pump1 50", "START_STIR reactor", "MOVE reactor waste 5 50 50 50"},
	}))

	// Verb prefixes match too, so MOVE anchors at the first transfer.
	require.NoError(t, evaluate(r, Assertion{
		Type:     AssertTraceOrder,
		Commands: []string{"MOVE", "START_STIR reactor", "MOVE"},
	}))

	err := evaluate(r, Assertion{
		Type:     AssertTraceOrder,
		Commands: []string{"START_STIR reactor", "HOME pump1 50"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `order broken at "HOME pump1 50"`)
}

func TestAssertTraceCount(t *testing.T) {
	r := sampleResult()
	require.NoError(t, evaluate(r, Assertion{Type: AssertTraceCount, Command: "MOVE", Count: 2}))
	require.NoError(t, evaluate(r, Assertion{Type: AssertTraceCount, Command: "STOP_STIR", Count: 0}))

	err := evaluate(r, Assertion{Type: AssertTraceCount, Command: "MOVE", Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected 3 commands matching "MOVE", got 2`)
}

func TestAssertFinalState(t *testing.T) {
	r := sampleResult()
	require.NoError(t, evaluate(r, Assertion{
		Type: AssertFinalState,
		Node: "reactor",
		Expect: map[string]any{
			"volume":      5,
			"stirring":    true,
			"temperature": 80.0,
		},
	}))

	// Zero-valued fields are dropped from the snapshot JSON but still
	// assertable.
	require.NoError(t, evaluate(r, Assertion{
		Type:   AssertFinalState,
		Node:   "pump1",
		Expect: map[string]any{"volume": 0, "stirring": false},
	}))

	err := evaluate(r, Assertion{
		Type:   AssertFinalState,
		Node:   "reactor",
		Expect: map[string]any{"volume": 7},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reactor.volume = 7")

	err = evaluate(r, Assertion{
		Type:   AssertFinalState,
		Node:   "ghost",
		Expect: map[string]any{"volume": 0},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `node "ghost"`)
}
