package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sweep",
		Short:         "Remove expired entries and stale backups",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(rootOpts, cmd)
		},
	}

	return cmd
}

func runSweep(opts *RootOptions, cmd *cobra.Command) error {
	store, cleanup, err := openStore(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	result := store.Sweep()
	if opts.Format == "json" {
		return out.Success(map[string]int{
			"expired_entries": result.ExpiredEntries,
			"pruned_backups":  result.PrunedBackups,
		})
	}
	return out.Success(fmt.Sprintf("swept: %d expired entries, %d stale backups",
		result.ExpiredEntries, result.PrunedBackups))
}
