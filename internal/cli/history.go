package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/mulcheck/internal/coverage"
	"github.com/roach88/mulcheck/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database   string
	Limit      int
	FailedOnly bool
}

// RunDetail is the output of history show.
type RunDetail struct {
	Run        store.RunSummary       `json:"run"`
	Mismatches []store.MismatchRecord `json:"mismatches"`
	Coverage   []coverage.Bin         `json:"coverage"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List the runs recorded with "mulcheck run --db", newest first.

Examples:
  mulcheck history --db runs.db
  mulcheck history --db runs.db --failed --limit 5
  mulcheck history show --db runs.db <run-id>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list, 0 for all")
	cmd.Flags().BoolVar(&opts.FailedOnly, "failed", false, "list FAILED runs only")

	cmd.AddCommand(&cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show one recorded run with its mismatches and coverage",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(opts, args[0], cmd)
		},
	})

	return cmd
}

// openHistory opens an existing database. A missing file is a command
// error rather than an empty history, so typos in --db are caught.
func openHistory(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	st, err := openHistory(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), store.ListOptions{Limit: opts.Limit, FailedOnly: opts.FailedOnly})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if formatter.JSON() {
		return formatter.Success(runs)
	}
	writeHistoryText(cmd.OutOrStdout(), runs)
	return nil
}

func runHistoryShow(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	st, err := openHistory(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	run, _, err := st.ReadRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, "unknown run", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	detail := RunDetail{Run: run}
	if detail.Mismatches, err = st.ReadMismatches(ctx, id); err != nil {
		return WrapExitError(ExitCommandError, "failed to read mismatches", err)
	}
	if detail.Coverage, err = st.ReadCoverage(ctx, id); err != nil {
		return WrapExitError(ExitCommandError, "failed to read coverage", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if formatter.JSON() {
		return formatter.Success(detail)
	}
	writeRunDetailText(cmd.OutOrStdout(), detail)
	return nil
}

func writeHistoryText(w io.Writer, runs []store.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tSTARTED\tVERDICT\tSEED\tFAULT\tCHECKED\tMISMATCHES\tCOVERAGE\tSTOP")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%d\t%d\t%d%%\t%s\n",
			r.Seq, r.ID, startedAt(r.StartedAt), r.Verdict, r.Seed, r.Fault,
			r.Checked, r.Mismatches, r.CoveragePct, r.StopReason)
	}
	tw.Flush()
}

func writeRunDetailText(w io.Writer, d RunDetail) {
	r := d.Run
	fmt.Fprintf(w, "Run %s (%s)\n", r.ID, r.Verdict)
	fmt.Fprintf(w, "  Started:  %s\n", startedAt(r.StartedAt))
	fmt.Fprintf(w, "  Seed:     %d\n", r.Seed)
	fmt.Fprintf(w, "  Fault:    %s\n", r.Fault)
	fmt.Fprintf(w, "  Stop:     %s after %d cycles\n", r.StopReason, r.Cycles)
	fmt.Fprintf(w, "  Checked:  %d of %d dispatched\n", r.Checked, r.Dispatched)
	fmt.Fprintf(w, "  Coverage: %d%%\n", r.CoveragePct)

	if len(d.Mismatches) > 0 {
		fmt.Fprintln(w, "\nMismatches:")
		for _, m := range d.Mismatches {
			fmt.Fprintf(w, "  [%d] cycle %d %s: %s\n", m.Ordinal+1, m.Cycle, m.Kind, m.Summary)
		}
	}

	fmt.Fprintln(w, "\nCoverage bins:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, b := range d.Coverage {
		goal := ""
		if b.Goal {
			goal = "goal"
		}
		fmt.Fprintf(tw, "  %s\t%d\t%s\n", b.Class, b.Hits, goal)
	}
	tw.Flush()
}

func startedAt(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
