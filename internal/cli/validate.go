package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chemputer/chempiler/internal/chasm"
	"github.com/chemputer/chempiler/internal/graph"
)

// ValidationResult holds pre-flight validation results.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Commands int      `json:"commands"`
	Nodes    int      `json:"nodes"`
	Errors   []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command: the same pre-flight
// checks a run performs, without touching hardware or the checkpoint log.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := struct {
		Topology string
		Script   string
	}{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a script and topology without executing",
		Long: `Parse a ChASM script, validate a topology file, and cross-check that
every node the script names exists in the topology.

Example:
  chempiler validate --topology rig.yaml --script synthesis.chasm`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, opts.Topology, opts.Script, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Topology, "topology", "", "path to topology YAML (required)")
	cmd.Flags().StringVar(&opts.Script, "script", "", "path to ChASM script (required)")
	_ = cmd.MarkFlagRequired("topology")
	_ = cmd.MarkFlagRequired("script")

	return cmd
}

func runValidate(opts *RootOptions, topologyPath, scriptPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scriptData, err := os.ReadFile(scriptPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "read script", err)
	}
	topologyData, err := os.ReadFile(topologyPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "read topology", err)
	}

	result := ValidationResult{Valid: true}

	cmds, err := chasm.Parse(string(scriptData))
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}
	result.Commands = len(cmds)

	g, err := graph.Load(topologyPath, topologyData)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	// Cross-check: every node a command names must exist in the rig.
	if g != nil {
		result.Nodes = len(g.Nodes())
		for _, c := range cmds {
			for i, arg := range c.Args {
				if arg.Kind != chasm.KindNode {
					continue
				}
				if _, err := g.Node(arg.Str); err != nil {
					result.Valid = false
					result.Errors = append(result.Errors,
						fmt.Sprintf("line %d: %s: argument %d: node %q not in topology", c.Line, c.Verb, i+1, arg.Str))
				}
			}
		}
	}

	if !result.Valid {
		if opts.Format == "json" {
			_ = formatter.Success(result) // carries valid:false with errors
		} else {
			for _, msg := range result.Errors {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
		}
		return WrapExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)), nil)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("ok: %d commands against %d nodes", result.Commands, result.Nodes))
}
