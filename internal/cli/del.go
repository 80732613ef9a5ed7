package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDelCommand creates the del command.
func NewDelCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "del <key>",
		Short:         "Delete the entry for a key",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDel(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDel(opts *RootOptions, key string, cmd *cobra.Command) error {
	store, cleanup, err := openStore(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	if err := store.Remove(key); err != nil {
		return WrapExitError(ExitCommandError, "deleting entry", err)
	}
	return out.Success(fmt.Sprintf("deleted: %s", key))
}
