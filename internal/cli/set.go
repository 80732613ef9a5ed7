package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskweave/taskweave/internal/state"
)

// SetOptions holds flags for the set command.
type SetOptions struct {
	*RootOptions
	TTL    time.Duration
	Schema string // optional CUE schema source to validate against
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <key> <value-json>",
		Short: "Write a value under a key",
		Long: `Write a value under a key. The value is parsed as JSON.

An optional CUE schema can be supplied to validate the value before the
write; a rejected value leaves the store unchanged.

Examples:
  taskweave set todos '[{"title":"milk","done":false}]'
  taskweave set greeting '"hello"' --ttl 1h
  taskweave set todos '[1,2,3]' --schema '[...int]'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.TTL, "ttl", 0, "expire the entry after this duration")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema source to validate the value against")

	return cmd
}

func runSet(opts *SetOptions, key, rawValue string, cmd *cobra.Command) error {
	var value any
	if err := json.Unmarshal([]byte(rawValue), &value); err != nil {
		return WrapExitError(ExitCommandError, "invalid value JSON", err)
	}

	store, cleanup, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cleanup()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	if opts.Schema != "" {
		validate, err := state.CompileCUEValidator(opts.Schema)
		if err != nil {
			return WrapExitError(ExitCommandError, "compiling schema", err)
		}
		if err := store.RegisterSchema(key, state.Schema{Version: 1, Validate: validate}); err != nil {
			return WrapExitError(ExitCommandError, "registering schema", err)
		}
	}

	var setOpts []state.SetOption
	if opts.TTL > 0 {
		setOpts = append(setOpts, state.WithTTL(opts.TTL))
	}

	if err := store.Set(key, value, setOpts...); err != nil {
		if state.IsValidationError(err) {
			_ = out.Error("E_VALIDATION", fmt.Sprintf("value rejected for key %q", key))
			return WrapExitError(ExitFailure, "validation failed", err)
		}
		return WrapExitError(ExitCommandError, "writing value", err)
	}

	out.VerboseLog("wrote %s", key)
	return out.Success(fmt.Sprintf("ok: %s", key))
}
