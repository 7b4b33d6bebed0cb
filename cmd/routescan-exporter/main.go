package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"routescan-exporter/internal/config"
	"routescan-exporter/internal/core/domain"
	"routescan-exporter/internal/shell/metrics"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
)

// errReported marks failures that were already logged
var errReported = errors.New("export failed")

func main() {
	os.Exit(execute(os.Args[1:]))
}

func execute(args []string) int {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cmd := newRootCommand()
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			logrus.Error(err)
		}
		return ExitFailure
	}
	return ExitSuccess
}

// exportFlags override the environment configuration when set
type exportFlags struct {
	address   string
	chainID   string
	dateFrom  string
	limit     int
	outputDir string
}

func newRootCommand() *cobra.Command {
	flags := &exportFlags{}

	root := &cobra.Command{
		Use:           "routescan-exporter",
		Short:         "Export the transaction history of a contract address from Routescan",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.address, "address", "", "contract address to export (default from EXPORT_ADDRESS)")
	pf.StringVar(&flags.chainID, "chain-id", "", "chain ID to export (default from EXPORT_CHAIN_ID)")
	pf.StringVar(&flags.dateFrom, "date-from", "", "start of the export range, RFC3339 (default from EXPORT_DATE_FROM)")
	pf.IntVar(&flags.limit, "limit", 0, "maximum number of transactions (default from EXPORT_LIMIT)")
	pf.StringVar(&flags.outputDir, "output-dir", "", "directory for the downloaded archive (default from OUTPUT_DIR)")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Perform one export and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, flags)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "schedule",
		Short: "Run exports on EXPORT_SCHEDULE and serve the run API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runSchedule(cfg)
		},
	})

	return root
}

// loadConfig reads the environment, applies flag overrides and validates the result
func loadConfig(cmd *cobra.Command, flags *exportFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	changed := cmd.Flags().Changed
	if changed("address") {
		cfg.Export.Address = flags.address
	}
	if changed("chain-id") {
		cfg.Export.ChainID = flags.chainID
	}
	if changed("date-from") {
		dateFrom, err := config.ParseExportTime(flags.dateFrom)
		if err != nil {
			return nil, fmt.Errorf("invalid --date-from: %w", err)
		}
		cfg.Export.DateFrom = dateFrom
	}
	if changed("limit") {
		cfg.Export.Limit = flags.limit
	}
	if changed("output-dir") {
		cfg.OutputDir = flags.outputDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logrus.SetLevel(level)

	return cfg, nil
}

func runCommand(cmd *cobra.Command, flags *exportFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := runOnce(ctx, cfg); err != nil {
		logrus.Errorf("Export failed: %v", err)
		return errReported
	}
	return nil
}

// runOnce performs a single export and pushes its metrics when a Pushgateway is configured
func runOnce(ctx context.Context, cfg *config.Config) (domain.ExportRun, error) {
	printBanner(cfg)

	registry := prometheus.NewRegistry()
	app, err := newApplication(cfg, registry)
	if err != nil {
		return domain.ExportRun{}, err
	}
	defer app.Close()

	run, runErr := app.exporter.Run(ctx, cfg.Export.Params())

	if cfg.Metrics.Enabled && cfg.Metrics.PushgatewayURL != "" {
		// The run context may already be cancelled; the push still goes out.
		if err := metrics.Push(context.WithoutCancel(ctx), cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName, registry); err != nil {
			logrus.Warnf("Failed to push metrics: %v", err)
		}
	}

	if runErr != nil {
		return run, runErr
	}

	outputFile := ""
	if run.OutputFile != nil {
		outputFile = *run.OutputFile
	}
	logrus.Infof("Transactions exported successfully: %s", filepath.Base(outputFile))
	return run, nil
}

func printBanner(cfg *config.Config) {
	params := cfg.Export.Params()

	dateTo := "now"
	if !params.DateTo.IsZero() {
		dateTo = domain.FormatExportTime(params.DateTo)
	}

	logrus.Info("Starting Routescan transaction export:")
	logrus.Infof("  Address: %s", params.Address)
	logrus.Infof("  Chain ID: %s", params.ChainID)
	logrus.Infof("  Date range: %s to %s", domain.FormatExportTime(params.DateFrom), dateTo)
	logrus.Infof("  Limit: %d", params.Limit)
	logrus.Infof("  Output directory: %s", cfg.OutputDir)
}
