package cli

import (
	"github.com/spf13/cobra"
)

// RestoreOptions holds flags for the restore command.
type RestoreOptions struct {
	*RootOptions
	ID string
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore entries from a backup snapshot",
		Long: `Destructively replace all entries with a backup snapshot.

Restores the most recent snapshot unless --id is given. Fails if no
snapshot exists.

Examples:
  taskweave restore --db ./taskweave.db
  taskweave restore --id 01937ad1-5c02-7d5e-8000-7f1a2b3c4d5e`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "snapshot id to restore (default: most recent)")

	return cmd
}

func runRestore(opts *RestoreOptions, cmd *cobra.Command) error {
	store, cleanup, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cleanup()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	var restoreErr error
	if opts.ID != "" {
		restoreErr = store.RestoreFromBackup(opts.ID)
	} else {
		restoreErr = store.RestoreFromBackup()
	}
	if restoreErr != nil {
		_ = out.Error("E_RESTORE", restoreErr.Error())
		return WrapExitError(ExitFailure, "restore failed", restoreErr)
	}
	return out.Success("restored")
}
