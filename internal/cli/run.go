package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chemputer/chempiler/internal/chasm"
	"github.com/chemputer/chempiler/internal/checkpoint"
	"github.com/chemputer/chempiler/internal/dispatch"
	"github.com/chemputer/chempiler/internal/graph"
	"github.com/chemputer/chempiler/internal/rig"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Topology string
	Script   string
	Database string
	Simulate bool
	Resume   bool
	Record   string

	// Factory overrides the driver factory (for testing, or for wiring
	// real hardware drivers in). If nil, --simulate selects the
	// simulated rig.
	Factory rig.DriverFactory

	// Tokens overrides run-id generation (for testing). Defaults to
	// UUIDv7.
	Tokens checkpoint.TokenGenerator

	// Clock overrides the dispatcher clock (for testing).
	Clock dispatch.Clock
}

// NewRunCommand creates the run command: the single "run platform" entry
// point taking script, topology and flags.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a ChASM script against a rig topology",
		Long: `Execute a ChASM procedure script against a rig topology.

The whole script is parsed and validated before the first command runs.
Every committed command is checkpointed to the database; an interrupted
run can be continued with --resume, which verifies that the script and
topology are unchanged before touching hardware.

Example:
  chempiler run --topology rig.yaml --script synthesis.chasm --db run.db --simulate
  chempiler run --topology rig.yaml --script synthesis.chasm --db run.db --simulate --resume`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlatform(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Topology, "topology", "", "path to topology YAML (required)")
	cmd.Flags().StringVar(&opts.Script, "script", "", "path to ChASM script (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to checkpoint SQLite database (required)")
	cmd.Flags().BoolVar(&opts.Simulate, "simulate", false, "run against simulated devices")
	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "resume the latest interrupted run")
	cmd.Flags().StringVar(&opts.Record, "record", "", "write a JSONL command trace to this path")
	_ = cmd.MarkFlagRequired("topology")
	_ = cmd.MarkFlagRequired("script")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// traceEntry is one line of the --record JSONL command trace.
type traceEntry struct {
	Index     int          `json:"index"`
	Line      int          `json:"line"`
	Command   string       `json:"command"`
	Timestamp time.Time    `json:"timestamp"`
	Snapshot  rig.Snapshot `json:"snapshot"`
}

func runPlatform(opts *RunOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scriptData, err := os.ReadFile(opts.Script)
	if err != nil {
		return WrapExitError(ExitCommandError, "read script", err)
	}
	topologyData, err := os.ReadFile(opts.Topology)
	if err != nil {
		return WrapExitError(ExitCommandError, "read topology", err)
	}

	cmds, err := chasm.Parse(string(scriptData))
	if err != nil {
		_ = formatter.Error(errorCode(err), "script rejected", err.Error())
		return WrapExitError(ExitFailure, "script validation failed", err)
	}
	formatter.VerboseLog("parsed %d commands from %s", len(cmds), opts.Script)

	g, err := graph.Load(opts.Topology, topologyData)
	if err != nil {
		_ = formatter.Error(errorCode(err), "topology rejected", err.Error())
		return WrapExitError(ExitFailure, "topology validation failed", err)
	}

	factory := opts.Factory
	if factory == nil {
		if !opts.Simulate {
			return WrapExitError(ExitCommandError, "no hardware driver factory configured", fmt.Errorf("use --simulate"))
		}
		factory = rig.NewSimFactory()
	}
	r, err := rig.Build(g, factory, rig.DefaultRetryPolicy)
	if err != nil {
		return WrapExitError(ExitCommandError, "open rig devices", err)
	}

	store, err := checkpoint.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "open checkpoint database", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("error closing checkpoint database", "error", closeErr)
		}
	}()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	scriptHash := checkpoint.Fingerprint(scriptData)
	topologyHash := checkpoint.Fingerprint(topologyData)

	var (
		runID string
		start int
	)
	if opts.Resume {
		latest, err := store.LatestRun(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "no run to resume", err)
		}
		st, err := store.Resume(ctx, latest.ID, scriptHash, topologyHash)
		if err != nil {
			if checkpoint.IsMismatch(err) {
				_ = formatter.Error("CHECKPOINT_MISMATCH", "refusing to resume", err.Error())
				return WrapExitError(ExitFailure, "checkpoint mismatch", err)
			}
			return WrapExitError(ExitCommandError, "load checkpoint", err)
		}
		if st.Completed {
			return formatter.Success(fmt.Sprintf("run %s already completed, nothing to resume", st.RunID))
		}
		r.Restore(st.Snapshot)
		runID = st.RunID
		start = st.Cursor
		slog.Info("resuming run", "run", runID, "cursor", start, "commands", len(cmds))
	} else {
		tokens := opts.Tokens
		if tokens == nil {
			tokens = checkpoint.UUIDv7Generator{}
		}
		runID = tokens.Generate()
		if err := store.BeginRun(ctx, runID, scriptHash, topologyHash); err != nil {
			return WrapExitError(ExitCommandError, "begin run", err)
		}
		slog.Info("starting run", "run", runID, "commands", len(cmds), "simulate", opts.Simulate)
	}

	var trace *json.Encoder
	if opts.Record != "" {
		f, err := os.OpenFile(opts.Record, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return WrapExitError(ExitCommandError, "open trace file", err)
		}
		defer f.Close()
		trace = json.NewEncoder(f)
	}

	commit := func(index int, c chasm.Command, snap rig.Snapshot) error {
		if err := store.Commit(ctx, runID, index, string(c.Verb), c.Line, snap); err != nil {
			return err
		}
		if trace != nil {
			return trace.Encode(traceEntry{
				Index:     index,
				Line:      c.Line,
				Command:   c.String(),
				Timestamp: time.Now().UTC(),
				Snapshot:  snap,
			})
		}
		return nil
	}

	dopts := []dispatch.Option{dispatch.WithCommit(commit)}
	if opts.Clock != nil {
		dopts = append(dopts, dispatch.WithClock(opts.Clock))
	}
	d := dispatch.New(r, dopts...)

	if err := d.Run(ctx, cmds, start); err != nil {
		_ = formatter.Error(errorCode(err), "run halted", err.Error())
		return WrapExitError(ExitFailure, fmt.Sprintf("run %s halted", runID), err)
	}

	if err := store.MarkCompleted(ctx, runID); err != nil {
		return WrapExitError(ExitCommandError, "mark run completed", err)
	}
	return formatter.Success(fmt.Sprintf("run %s completed: %d commands", runID, len(cmds)))
}

// signalContext derives a context cancelled by SIGINT/SIGTERM, so abort
// lands between commands and the checkpoint stays consistent.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, aborting after current command", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}
