package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/shipbatch/internal/core"
	"github.com/spf13/cobra"
)

type convertOptions struct {
	format  string
	output  string
	all     bool
	mapping []string
}

func newConvertCmd(g *globalOptions) *cobra.Command {
	opts := convertOptions{format: core.FormatCSV.Name}
	cmd := &cobra.Command{
		Use:   "convert FILE",
		Short: "Convert a batch file to a carrier import format",
		Long: "Convert reads a delimited batch file, maps and validates its columns and\n" +
			"writes the records in carrier column order. Invalid rows are dropped\n" +
			"unless --all is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, g, opts, args[0])
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.format, "format", "f", core.FormatCSV.Name, "output format: csv, ssv or xml")
	fs.StringVarP(&opts.output, "output", "o", "", "output file, \"-\" for stdout (default: input name with the format extension)")
	fs.BoolVar(&opts.all, "all", false, "include invalid rows")
	fs.StringArrayVarP(&opts.mapping, "map", "m", nil, "column override INDEX=KEY (empty KEY unmaps), repeatable")
	return cmd
}

func runConvert(cmd *cobra.Command, g *globalOptions, opts convertOptions, path string) error {
	format, err := core.FormatByName(opts.format)
	if err != nil {
		return err
	}
	overrides, err := parseMapFlags(opts.mapping)
	if err != nil {
		return err
	}
	svc, err := g.newService(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	preview, err := analyzeFile(ctx, svc, g.logger(cmd), path, overrides)
	if err != nil {
		return err
	}
	result, err := svc.CommitImport(ctx, preview.SessionID, !opts.all)
	if err != nil {
		return err
	}
	export, err := svc.Export(ctx, format, false)
	if err != nil {
		return err
	}

	target := opts.output
	if target == "" {
		target = strings.TrimSuffix(path, filepath.Ext(path)) + format.Extension
		if target == path {
			target = strings.TrimSuffix(path, filepath.Ext(path)) + ".out" + format.Extension
		}
	}
	if target == "-" {
		_, err = cmd.OutOrStdout().Write(export.Data)
	} else {
		err = os.WriteFile(target, export.Data, 0o644)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%d records written to %s, %d invalid skipped, %d substitutions\n",
		export.Records, target, result.SkippedInvalid, len(export.Substitutions))
	return nil
}

// parseMapFlags turns INDEX=KEY pairs into column overrides.
func parseMapFlags(pairs []string) (map[int]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[int]string, len(pairs))
	for _, p := range pairs {
		idx, key, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --map %q: want INDEX=KEY", p)
		}
		i, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, fmt.Errorf("invalid --map %q: %w", p, err)
		}
		out[i] = strings.TrimSpace(key)
	}
	return out, nil
}
