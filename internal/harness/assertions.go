package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// AssertionError reports one failed claim with enough of the trace to
// debug it without rerunning the scenario.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
	if len(e.Trace) > 0 {
		buf.WriteString("\ntrace:")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "\n  [%d] %s", ev.Seq, ev.Command)
		}
	}
	return buf.String()
}

// evaluate checks one assertion against a finished run.
func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertFinalState:
		return assertFinalState(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// commandMatches reports whether a trace command matches a pattern,
// either exactly or as a word prefix so a bare verb counts all of its
// occurrences.
func commandMatches(command, pattern string) bool {
	return command == pattern || strings.HasPrefix(command, pattern+" ")
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Command == a.Command {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("command %q in trace", a.Command),
		Actual:   "not found",
		Trace:    trace,
	}
}

func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Commands) && commandMatches(ev.Command, a.Commands[next]) {
			next++
		}
	}
	if next < len(a.Commands) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("commands in order %v", a.Commands),
			Actual:   fmt.Sprintf("order broken at %q", a.Commands[next]),
			Trace:    trace,
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if commandMatches(ev.Command, a.Command) {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d commands matching %q", a.Count, a.Command),
			Actual:   fmt.Sprintf("%d", n),
			Trace:    trace,
		}
	}
	return nil
}

func assertFinalState(result *Result, a Assertion) error {
	st, ok := result.Final[a.Node]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("node %q in final snapshot", a.Node),
			Actual:   "not present",
			Trace:    result.Trace,
		}
	}

	// Round-trip through JSON so expectations use the same field names
	// and value shapes the checkpoint log records.
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}

	for key, want := range a.Expect {
		got, present := fields[key]
		// omitempty drops zero values from the snapshot JSON.
		if !present {
			got = zeroFor(want)
		}
		if !valuesEqual(want, got) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", a.Node, key, want),
				Actual:   fmt.Sprintf("%v", got),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

func zeroFor(want any) any {
	switch want.(type) {
	case bool:
		return false
	case string:
		return ""
	default:
		return float64(0)
	}
}

// valuesEqual compares a YAML-decoded expectation against a
// JSON-decoded snapshot field, normalizing the numeric types the two
// decoders disagree on.
func valuesEqual(want, got any) bool {
	if wf, ok := asFloat(want); ok {
		gf, ok := asFloat(got)
		return ok && wf == gf
	}
	return reflect.DeepEqual(want, got)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
