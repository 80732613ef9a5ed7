package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskweave/taskweave/internal/state"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	SchemaFile string
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema <value-json>",
		Short: "Check a JSON value against a CUE schema",
		Long: `Compile a CUE schema and check whether a JSON value satisfies it.

Exits 0 when the value validates, 1 when it is rejected.

Examples:
  taskweave schema '[1,2,3]' --schema-file todos.cue
  echo '{"title":"milk"}' | xargs -0 taskweave schema --schema-file todo.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SchemaFile, "schema-file", "", "path to CUE schema source (required)")
	_ = cmd.MarkFlagRequired("schema-file")

	return cmd
}

func runSchema(opts *SchemaOptions, rawValue string, cmd *cobra.Command) error {
	src, err := os.ReadFile(opts.SchemaFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading schema file", err)
	}

	validate, err := state.CompileCUEValidator(string(src))
	if err != nil {
		return WrapExitError(ExitCommandError, "compiling schema", err)
	}

	var value any
	if err := json.Unmarshal([]byte(rawValue), &value); err != nil {
		return WrapExitError(ExitCommandError, "invalid value JSON", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	if !validate(value) {
		_ = out.Error("E_VALIDATION", "value does not satisfy schema")
		return WrapExitError(ExitFailure, "validation failed", nil)
	}
	return out.Success(fmt.Sprintf("valid against %s", opts.SchemaFile))
}
