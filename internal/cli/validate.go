package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/posworks/tally/internal/expr"
	"github.com/posworks/tally/internal/scheme"
)

// ValidationResult holds the outcome of validating a scheme file.
type ValidationResult struct {
	Valid       bool                `json:"valid"`
	Items       int                 `json:"items"`
	Rules       int                 `json:"rules"`
	Fingerprint string              `json:"fingerprint"`
	Diagnostics []scheme.Diagnostic `json:"diagnostics,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scheme-file>",
		Short: "Validate a scheme file without running a session",
		Long: `Validate a pricing scheme file.

Loads every entry best-effort and reports per-line diagnostics for
malformed entries, references to unknown items, and definition errors.
The well-formed entries still produce a scheme, so one bad line never
hides the rest of the file.

Exit codes:
  0 - Scheme is clean
  1 - One or more entries were rejected
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	sch, diags, err := scheme.Load(schemePath, expr.New())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scheme", err)
	}

	result := ValidationResult{
		Valid:       len(diags) == 0,
		Items:       len(sch.Items()),
		Rules:       len(sch.Rules()),
		Fingerprint: sch.Fingerprint(),
		Diagnostics: diags,
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, d := range diags {
			fmt.Fprintln(w, d.String())
		}
		if result.Valid {
			fmt.Fprintf(w, "OK: %d items, %d rules\n", result.Items, result.Rules)
		} else {
			fmt.Fprintf(w, "%d entries rejected; %d items, %d rules loaded\n",
				len(diags), result.Items, result.Rules)
		}
		formatter.VerboseLog("fingerprint: %s", result.Fingerprint)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid entries", len(diags)))
	}
	return nil
}
