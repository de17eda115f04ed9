package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/posworks/tally/internal/checkout"
	"github.com/posworks/tally/internal/expr"
	"github.com/posworks/tally/internal/scheme"
	"github.com/posworks/tally/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Session  string
}

// RunReport is the JSON payload of a finished run.
type RunReport struct {
	SessionToken      string  `json:"session_token"`
	SchemeFingerprint string  `json:"scheme_fingerprint"`
	Total             float64 `json:"total"`
	Scans             int     `json:"scans"`
	Firings           int     `json:"firings"`
	Unknowns          int     `json:"unknowns"`
	Events            int64   `json:"events"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scheme-file> [scans-file]",
		Short: "Price a scan sequence against a scheme",
		Long: `Run a checkout session: load a pricing scheme, scan item IDs, and
print the running total.

Scan IDs are read one per line from the scans file, or from stdin when no
file is given. Blank lines and lines starting with # are ignored. Unknown
IDs are reported and skipped; the session continues.

Examples:
  tally run ./examples/scheme.txt ./examples/scans.txt
  echo 1983 | tally run ./examples/scheme.txt
  tally run ./examples/scheme.txt ./examples/scans.txt --db ./audit.db`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckout(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite audit database (optional)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "fixed session token (defaults to a generated UUID)")

	return cmd
}

func runCheckout(opts *RunOptions, args []string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	sch, diags, err := scheme.Load(args[0], expr.New())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scheme", err)
	}
	for _, d := range diags {
		slog.Warn("scheme entry skipped", "line", d.Line, "code", d.Code, "message", d.Message)
	}
	slog.Info("scheme loaded",
		"items", len(sch.Items()),
		"rules", len(sch.Rules()),
		"skipped", len(diags),
		"fingerprint", sch.Fingerprint(),
	)

	scans, err := readScans(args, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read scans", err)
	}

	counter := &firingCounter{}
	notifiers := checkout.MultiNotifier{counter}
	if opts.Format == "text" {
		notifiers = append(notifiers, &receiptNotifier{w: cmd.OutOrStdout()})
	}
	if opts.Verbose {
		notifiers = append(notifiers, checkout.SlogNotifier{})
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open audit database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing audit database", "error", closeErr)
			}
		}()
		notifiers = append(notifiers, store.NewRecorder(cmd.Context(), st, slog.Default()))
	}

	var checkoutOpts []checkout.Option
	checkoutOpts = append(checkoutOpts, checkout.WithNotifier(notifiers))
	if opts.Session != "" {
		checkoutOpts = append(checkoutOpts, checkout.WithSessionToken(opts.Session))
	}

	c := checkout.New(sch, checkoutOpts...)

	// The session row must exist before event writes hit the foreign key.
	for _, n := range notifiers {
		if rec, ok := n.(*store.Recorder); ok {
			if err := rec.Begin(c.SessionToken(), sch.Fingerprint()); err != nil {
				return WrapExitError(ExitCommandError, "failed to begin audit session", err)
			}
		}
	}

	report := RunReport{
		SessionToken:      c.SessionToken(),
		SchemeFingerprint: sch.Fingerprint(),
	}
	for _, id := range scans {
		if err := c.Scan(id); err != nil {
			report.Unknowns++
			continue
		}
		report.Scans++
	}
	report.Total = c.Total()
	report.Firings = counter.firings
	report.Events = c.LastSeq()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(report)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Total: %.2f\n", report.Total)
	return nil
}

func configureLogging(verbose bool) {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// readScans reads item IDs from the optional scans file or, failing that,
// from stdin. One ID per line; # starts a comment.
func readScans(args []string, stdin io.Reader) ([]string, error) {
	var r io.Reader = stdin
	if len(args) == 2 {
		f, err := os.Open(args[1])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var scans []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		scans = append(scans, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return scans, nil
}

// firingCounter counts rule firings for the run report.
type firingCounter struct {
	firings int
}

func (c *firingCounter) ItemScanned(checkout.ScanEvent)    {}
func (c *firingCounter) RuleApplied(checkout.RuleEvent)    { c.firings++ }
func (c *firingCounter) UnknownItem(checkout.UnknownEvent) {}

// receiptNotifier prints a receipt-style line per event in text mode.
type receiptNotifier struct {
	w io.Writer
}

func (n *receiptNotifier) ItemScanned(e checkout.ScanEvent) {
	fmt.Fprintf(n.w, "  %-12s %8.2f   total %8.2f\n", e.ItemID, e.Intrinsic, e.TotalAfter)
}

func (n *receiptNotifier) RuleApplied(e checkout.RuleEvent) {
	fmt.Fprintf(n.w, "  %-12s %8.2f   total %8.2f\n", e.RuleName, e.Adjustment, e.TotalAfter)
}

func (n *receiptNotifier) UnknownItem(e checkout.UnknownEvent) {
	fmt.Fprintf(n.w, "  %-12s  unknown item, skipped\n", e.ItemID)
}
