package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gentest/internal/store"
	"github.com/roach88/gentest/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
}

// TraceResult holds the trace output for one run.
type TraceResult struct {
	Run    store.Run     `json:"run"`
	Events []trace.Event `json:"events"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Inspect archived runs",
		Long: `Inspect runs archived by 'gentest run --db'.

Without a run ID, lists all archived runs. With one, prints the run's
lifecycle event timeline in seq order.

Examples:
  gentest trace --db ./runs.db
  gentest trace --db ./runs.db 01923e5a-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listRuns(opts, cmd)
			}
			return showTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run archive (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func openArchive(opts *TraceOptions) (*store.Store, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open run archive", err)
	}
	return st, nil
}

func listRuns(opts *TraceOptions, cmd *cobra.Command) error {
	st, err := openArchive(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No archived runs.")
		return nil
	}
	for _, run := range runs {
		status := "PASS"
		if !run.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", run.ID, status, run.Namespace)
	}
	return nil
}

func showTrace(opts *TraceOptions, id string, cmd *cobra.Command) error {
	st, err := openArchive(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.ReadRun(cmd.Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, fmt.Sprintf("run %q not found", id), err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	events, err := st.ReadTrace(cmd.Context(), id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(TraceResult{Run: *run, Events: events})
	}

	status := "PASS"
	if !run.Pass {
		status = "FAIL"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %s  %s  %s\n", run.ID, status, run.Namespace)
	if run.Error != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "error: %s\n", run.Error)
	}
	for _, ev := range events {
		fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %-24s %s\n", ev.Seq, ev.Type, ev.Namespace)
	}
	return nil
}
