package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// BackupOptions holds flags for the backup command.
type BackupOptions struct {
	*RootOptions
	List bool
}

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BackupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create or list backup snapshots",
		Long: `Create a full snapshot of all live entries, or list existing snapshots.

Snapshots are pruned automatically once older than the retention window.

Examples:
  taskweave backup --db ./taskweave.db
  taskweave backup --list`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.List, "list", false, "list snapshots instead of creating one")

	return cmd
}

func runBackup(opts *BackupOptions, cmd *cobra.Command) error {
	store, cleanup, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cleanup()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	if opts.List {
		infos, err := store.Backups()
		if err != nil {
			return WrapExitError(ExitCommandError, "listing backups", err)
		}
		if opts.Format == "json" {
			return out.Success(infos)
		}
		for _, info := range infos {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d entries\n",
				info.ID, info.CreatedAt.Format("2006-01-02T15:04:05Z"), info.Entries)
		}
		return nil
	}

	id, err := store.Backup()
	if err != nil {
		return WrapExitError(ExitCommandError, "creating backup", err)
	}
	return out.Success(fmt.Sprintf("backup created: %s", id))
}
