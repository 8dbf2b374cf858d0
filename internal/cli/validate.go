package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/shipbatch/internal/core"
	"github.com/spf13/cobra"
)

// errInvalidRows makes validate exit non-zero in strict mode.
var errInvalidRows = errors.New("batch contains invalid rows")

type validateOptions struct {
	jsonOut bool
	strict  bool
	rows    bool
	mapping []string
}

func newValidateCmd(g *globalOptions) *cobra.Command {
	opts := validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Analyze a batch file and print its import report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, g, opts, args[0])
		},
	}
	fs := cmd.Flags()
	fs.BoolVar(&opts.jsonOut, "json", false, "print the full preview as JSON")
	fs.BoolVar(&opts.strict, "strict", false, "exit non-zero when any row is invalid")
	fs.BoolVar(&opts.rows, "rows", false, "list every invalid row with its errors")
	fs.StringArrayVarP(&opts.mapping, "map", "m", nil, "column override INDEX=KEY (empty KEY unmaps), repeatable")
	return cmd
}

func runValidate(cmd *cobra.Command, g *globalOptions, opts validateOptions, path string) error {
	svc, err := g.newService(cmd)
	if err != nil {
		return err
	}
	overrides, err := parseMapFlags(opts.mapping)
	if err != nil {
		return err
	}

	preview, err := analyzeFile(cmd.Context(), svc, g.logger(cmd), path, overrides)
	if err != nil {
		return err
	}
	defer svc.CancelImport(preview.SessionID)

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(preview); err != nil {
			return err
		}
	} else {
		printReport(out, preview, opts.rows)
	}

	if opts.strict && preview.Report.InvalidRows > 0 {
		return errInvalidRows
	}
	return nil
}

func printReport(w io.Writer, p *core.ImportPreview, rows bool) {
	r := p.Report
	fmt.Fprintf(w, "File:       %s (delimiter %q)\n", p.FileName, p.Delimiter)
	fmt.Fprintf(w, "Rows:       %d total, %d valid, %d invalid, %d skipped\n", r.TotalRows, r.ValidRows, r.InvalidRows, r.SkippedRows)
	if r.CriticalRows > 0 || r.DuplicateRows > 0 || r.LargePackages > 0 {
		fmt.Fprintf(w, "Flags:      %d critical, %d duplicate, %d large package\n", r.CriticalRows, r.DuplicateRows, r.LargePackages)
	}
	fmt.Fprintf(w, "Severity:   %s\n", r.Severity)
	if len(p.Unmapped) > 0 {
		fmt.Fprintf(w, "Unmapped:   %s\n", strings.Join(p.Unmapped, ", "))
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "Warning:    %s\n", warning)
	}

	if rows {
		for _, row := range p.Rows {
			if row.Verdict.IsValid {
				continue
			}
			fmt.Fprintf(w, "\nline %d:\n", row.LineNumber)
			printErrors(w, row.Verdict.FieldErrors)
		}
		return
	}
	for _, s := range r.ErrorSamples {
		fmt.Fprintf(w, "\nline %d:\n", s.LineNumber)
		printErrors(w, s.Errors)
	}
}

func printErrors(w io.Writer, errs []core.FieldError) {
	for _, fe := range errs {
		label := fe.Label
		if label == "" {
			label = fe.Key
		}
		fmt.Fprintf(w, "  %s: %s\n", label, fe.Message)
	}
}
