package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Read the value stored under a key",
		Long: `Read the value stored under a key.

Expired entries read as absent. The value is printed as JSON.

Examples:
  taskweave get todos --db ./taskweave.db
  taskweave get settings --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runGet(opts *RootOptions, key string, cmd *cobra.Command) error {
	store, cleanup, err := openStore(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	if !store.Has(key) {
		_ = out.Error("E_NOT_FOUND", fmt.Sprintf("no entry for key %q", key))
		return WrapExitError(ExitFailure, "key not found", nil)
	}

	value := store.Get(key)
	encoded, err := json.Marshal(value)
	if err != nil {
		return WrapExitError(ExitCommandError, "encoding value", err)
	}

	if opts.Format == "json" {
		return out.Success(json.RawMessage(encoded))
	}
	return out.Success(string(encoded))
}
