package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/posworks/tally/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
}

// TraceStats summarizes a recorded session.
type TraceStats struct {
	TotalEvents int     `json:"total_events"`
	Scans       int     `json:"scans"`
	Firings     int     `json:"firings"`
	Unknowns    int     `json:"unknowns"`
	FinalTotal  float64 `json:"final_total"`
}

// TraceResult holds the complete trace output for one session.
type TraceResult struct {
	Session  store.Session `json:"session"`
	Timeline []store.Event `json:"timeline"`
	Stats    TraceStats    `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded checkout sessions",
		Long: `Query the audit database for recorded sessions.

Without --session, lists every recorded session. With --session, prints
the session's event timeline in logical-clock order plus summary stats.

Examples:
  tally trace --db ./audit.db
  tally trace --db ./audit.db --session 0190ab8e-...
  tally trace --db ./audit.db --session 0190ab8e-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite audit database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session token to trace")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open audit database", err)
	}
	defer st.Close()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Session == "" {
		return listSessions(ctx, st, formatter, cmd)
	}

	sess, events, err := st.ReadSession(ctx, opts.Session)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	result := TraceResult{Session: sess, Timeline: events}
	for _, ev := range events {
		result.Stats.TotalEvents++
		switch ev.Type {
		case "scan":
			result.Stats.Scans++
			result.Stats.FinalTotal = ev.TotalAfter
		case "firing":
			result.Stats.Firings++
			result.Stats.FinalTotal = ev.TotalAfter
		case "unknown":
			result.Stats.Unknowns++
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Session %s\n", sess.Token)
	fmt.Fprintf(w, "Scheme  %s\n", sess.SchemeFingerprint)
	fmt.Fprintf(w, "Started %s\n\n", sess.StartedAt)
	for _, ev := range events {
		switch ev.Type {
		case "scan":
			fmt.Fprintf(w, "  %4d  scan     %-12s %8.2f   total %8.2f\n",
				ev.Seq, ev.ItemID, ev.Amount, ev.TotalAfter)
		case "firing":
			consumed := ""
			if len(ev.Consumed) > 0 {
				consumed = "  consumed " + strings.Join(ev.Consumed, ",")
			}
			fmt.Fprintf(w, "  %4d  firing   %-12s %8.2f   total %8.2f%s\n",
				ev.Seq, ev.RuleName, ev.Amount, ev.TotalAfter, consumed)
		case "unknown":
			fmt.Fprintf(w, "  %4d  unknown  %s\n", ev.Seq, ev.ItemID)
		}
	}
	fmt.Fprintf(w, "\n%d events: %d scans, %d firings, %d unknown; final total %.2f\n",
		result.Stats.TotalEvents, result.Stats.Scans, result.Stats.Firings,
		result.Stats.Unknowns, result.Stats.FinalTotal)
	return nil
}

func listSessions(ctx context.Context, st *store.Store, formatter *OutputFormatter, cmd *cobra.Command) error {
	sessions, err := st.Sessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(sessions)
	}

	w := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No recorded sessions.")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(w, "%s  %s  scheme %s\n", s.Token, s.StartedAt, s.SchemeFingerprint)
	}
	return nil
}
