// Package cli implements the shipbatch command line: offline validation and
// conversion of carrier batch files without a running server.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/JonMunkholm/shipbatch/internal/core"
	"github.com/JonMunkholm/shipbatch/internal/core/carrier"
	"github.com/JonMunkholm/shipbatch/internal/logging"
	"github.com/JonMunkholm/shipbatch/internal/store"
	"github.com/spf13/cobra"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	homeCountry  string
	profilesFile string
	logLevel     string
	logFormat    string
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		return 1
	}
	return 0
}

// describe appends the support code and suggested action to errors that
// carry a user-facing message.
func describe(err error) string {
	var ue *core.UserError
	if errors.As(err, &ue) {
		return fmt.Sprintf("%v (Code: %s). %s", err, ue.User.Code, ue.User.Action)
	}
	return err.Error()
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "shipbatch",
		Short:         "Validate and convert carrier shipment batch files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	fs := cmd.PersistentFlags()
	fs.StringVar(&opts.homeCountry, "home-country", envOr("CARRIER_HOME_COUNTRY", carrier.DefaultHomeCountry), "ISO code shipments originate from")
	fs.StringVar(&opts.profilesFile, "profiles", os.Getenv("COUNTRY_PROFILES_FILE"), "YAML file overriding country profiles")
	fs.StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level: debug, info, warn, error")
	fs.StringVar(&opts.logFormat, "log-format", envOr("LOG_FORMAT", "text"), "log format: text or json")

	cmd.AddCommand(
		newValidateCmd(opts),
		newConvertCmd(opts),
		newFieldsCmd(opts),
		newCountriesCmd(opts),
	)
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// logger writes to the command's stderr so stdout stays clean for output
// files.
func (o *globalOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), o.logLevel, o.logFormat)
}

// newService builds a service over a fresh memory store. Every analyzed row
// is kept in the preview so reports can list all of them.
func (o *globalOptions) newService(cmd *cobra.Command) (*core.Service, error) {
	env, err := o.env()
	if err != nil {
		return nil, err
	}
	cfg := core.ServiceConfig{PreviewRows: math.MaxInt}
	return core.NewService(env, store.NewMemory(), cfg, core.WithServiceLogger(o.logger(cmd)))
}

func (o *globalOptions) env() (core.Env, error) {
	return carrier.NewEnv(o.homeCountry, o.profilesFile)
}

// analyzeFile opens path and runs it through the import analysis.
func analyzeFile(ctx context.Context, svc *core.Service, logger *slog.Logger, path string, overrides map[int]string) (*core.ImportPreview, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	preview, err := svc.ImportFile(ctx, path, f, overrides)
	if err != nil {
		if core.IsUserFacing(err) {
			err = core.NewUserError(err)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("file analyzed", "file", path, "rows", preview.Report.TotalRows)
	return preview, nil
}
