package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemputer/chempiler/internal/checkpoint"
	"github.com/chemputer/chempiler/internal/device"
	"github.com/chemputer/chempiler/internal/graph"
	"github.com/chemputer/chempiler/internal/rig"
	"github.com/chemputer/chempiler/internal/testutil"
)

const testTopology = `
nodes:
  - id: flask_water
    type: flask
    max_volume: 100
    volume: 50
  - id: reactor
    type: stirrer
    model: ika_ret
    max_volume: 100
  - id: waste
    type: waste
    max_volume: 500
  - id: valve1
    type: valve
    pump: pump1
  - id: pump1
    type: pump
    max_volume: 10
edges:
  - from: flask_water
    to: valve1
    backbone: true
    to_port: 1
  - from: reactor
    to: valve1
    backbone: true
    to_port: 2
  - from: waste
    to: valve1
    backbone: true
    to_port: 3
  - from: pump1
    to: valve1
    backbone: true
    to_port: 0
`

const testScript = `HOME pump1
MOVE flask_water reactor 10
START_STIR reactor
SET_TEMP reactor 80
STIRRER_WAIT_FOR_TEMP reactor
STOP_STIR reactor
`

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type runFixture struct {
	opts *RunOptions
	cmd  *cobra.Command
	out  *bytes.Buffer
	db   string
}

func newRunFixture(t *testing.T, script, topology string) *runFixture {
	t.Helper()
	dir := t.TempDir()
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetContext(context.Background())

	db := filepath.Join(dir, "run.db")
	return &runFixture{
		opts: &RunOptions{
			RootOptions: &RootOptions{Format: "text"},
			Topology:    writeTempFile(t, dir, "rig.yaml", topology),
			Script:      writeTempFile(t, dir, "procedure.chasm", script),
			Database:    db,
			Simulate:    true,
			Tokens:      testutil.NewFixedTokenGenerator("run-1"),
			Clock:       testutil.NewFakeClock(),
		},
		cmd: cmd,
		out: out,
		db:  db,
	}
}

func TestRunSimulatedScriptToCompletion(t *testing.T) {
	fx := newRunFixture(t, testScript, testTopology)

	require.NoError(t, runPlatform(fx.opts, fx.cmd))
	assert.Contains(t, fx.out.String(), "run run-1 completed: 6 commands")

	store, err := checkpoint.Open(fx.db)
	require.NoError(t, err)
	defer store.Close()
	n, err := store.CommitCount(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestRunRejectsMalformedScriptBeforeExecution(t *testing.T) {
	fx := newRunFixture(t, "MOVE flask_water reactor ten\n", testTopology)

	err := runPlatform(fx.opts, fx.cmd)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	// Nothing was committed: the checkpoint log has no runs.
	store, err := checkpoint.Open(fx.db)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.LatestRun(context.Background())
	assert.Error(t, err)
}

func TestRunRejectsInvalidTopology(t *testing.T) {
	fx := newRunFixture(t, testScript, "nodes: []\nedges: []")

	err := runPlatform(fx.opts, fx.cmd)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRunWithoutFactoryRequiresSimulate(t *testing.T) {
	fx := newRunFixture(t, testScript, testTopology)
	fx.opts.Simulate = false

	err := runPlatform(fx.opts, fx.cmd)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// brokenStirrerFactory builds simulated devices whose stirrers fail
// permanently, so a run halts at the first stirrer command.
type brokenStirrerFactory struct {
	*rig.SimFactory
}

func (f *brokenStirrerFactory) Stirrer(node *graph.Node) (device.Stirrer, error) {
	d, err := f.SimFactory.Stirrer(node)
	if err != nil {
		return nil, err
	}
	f.Stirrers[node.ID].FailNext = 1000
	return d, nil
}

func TestRunHaltsAndResumeContinues(t *testing.T) {
	fx := newRunFixture(t, testScript, testTopology)

	// First attempt: the stirrer fails permanently, so the run halts at
	// START_STIR (index 2) with commands 0 and 1 committed.
	fx.opts.Factory = &brokenStirrerFactory{SimFactory: rig.NewSimFactory()}
	err := runPlatform(fx.opts, fx.cmd)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	store, err := checkpoint.Open(fx.db)
	require.NoError(t, err)
	n, err := store.CommitCount(context.Background(), "run-1")
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.Equal(t, 2, n)

	// Resume with healthy devices: picks up at index 2, finishes.
	resume := newRunFixture(t, testScript, testTopology)
	resume.opts.Database = fx.db
	resume.opts.Resume = true
	require.NoError(t, runPlatform(resume.opts, resume.cmd))
	assert.Contains(t, resume.out.String(), "run run-1 completed")

	store, err = checkpoint.Open(fx.db)
	require.NoError(t, err)
	defer store.Close()
	n, err = store.CommitCount(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestResumeAgainstEditedScriptIsMismatch(t *testing.T) {
	fx := newRunFixture(t, testScript, testTopology)
	require.NoError(t, runPlatform(fx.opts, fx.cmd))

	edited := newRunFixture(t, testScript+"HOME pump1\n", testTopology)
	edited.opts.Database = fx.db
	edited.opts.Resume = true

	err := runPlatform(edited.opts, edited.cmd)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, checkpoint.IsMismatch(err))
}

func TestResumeCompletedRunIsNoOp(t *testing.T) {
	fx := newRunFixture(t, testScript, testTopology)
	require.NoError(t, runPlatform(fx.opts, fx.cmd))

	again := newRunFixture(t, testScript, testTopology)
	again.opts.Database = fx.db
	again.opts.Resume = true
	require.NoError(t, runPlatform(again.opts, again.cmd))
	assert.Contains(t, again.out.String(), "nothing to resume")
}

func TestRecordWritesCommandTrace(t *testing.T) {
	fx := newRunFixture(t, testScript, testTopology)
	trace := filepath.Join(t.TempDir(), "trace.jsonl")
	fx.opts.Record = trace

	require.NoError(t, runPlatform(fx.opts, fx.cmd))

	data, err := os.ReadFile(trace)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 6)
	assert.Contains(t, lines[1], `"MOVE flask_water reactor 10 50 50 50"`)
}
