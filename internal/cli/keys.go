package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// NewKeysCommand creates the keys command.
func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List all live entry keys",
		Long: `List all live (non-expired) entry keys, sorted.

Examples:
  taskweave keys --db ./taskweave.db
  taskweave keys --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(rootOpts, cmd)
		},
	}

	return cmd
}

func runKeys(opts *RootOptions, cmd *cobra.Command) error {
	store, cleanup, err := openStore(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	entries, err := store.ExportState()
	if err != nil {
		return WrapExitError(ExitCommandError, "listing entries", err)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if opts.Format == "json" {
		return out.Success(keys)
	}
	return out.Success(strings.Join(keys, "\n"))
}
