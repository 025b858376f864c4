package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/clinic-ledger/app"
	"github.com/warp/clinic-ledger/config"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/logging"
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Clinic ledger and payroll command-line tool",
	Long: `ledgerctl seeds, reports on and closes the clinic ledger.

It reads the same environment as the server (DB_DRIVER, DB_DSN, LOG_LEVEL,
control account codes). A .env file in the working directory is loaded first.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "database DSN (overrides DB_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (overrides LOG_LEVEL)")
}

// openApp loads configuration, applies flag overrides and opens the app.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dsn, _ := cmd.Flags().GetString("db"); dsn != "" {
		cfg.DBDSN = dsn
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	logger, err := logging.Setup(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		TimeFormat: time.RFC3339,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	return app.New(cmd.Context(), cfg, logger.With().Str("component", "ledgerctl").Logger())
}

// withApp runs fn against an opened app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

// addMonthFlags registers --year and --month, defaulting to the current month.
func addMonthFlags(cmd *cobra.Command) {
	now := time.Now()
	cmd.Flags().Int("year", now.Year(), "year")
	cmd.Flags().Int("month", int(now.Month()), "month (1-12)")
}

func monthFlags(cmd *cobra.Command) (generic.Month, error) {
	year, _ := cmd.Flags().GetInt("year")
	month, _ := cmd.Flags().GetInt("month")
	return generic.MonthOf(year, time.Month(month))
}
