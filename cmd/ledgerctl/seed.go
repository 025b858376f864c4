package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/clinic-ledger/app"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the chart of accounts and payroll codes, optionally a demo scenario",
	Long: `Opening the database seeds the default chart of accounts and payroll codes
when SEED_DEFAULTS is true. With --scenario, existing activity is replaced
by a demo data set for the given month.`,
	Example: `  ledgerctl seed
  ledgerctl seed --scenario clinic-month --year 2025 --month 3
  ledgerctl seed --scenario closed-month`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().String("scenario", "", "demo scenario to load (clinic-month, closed-month)")
	addMonthFlags(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		accounts, err := a.Chart.List(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "chart of accounts: %d accounts\n", len(accounts))

		scenario, _ := cmd.Flags().GetString("scenario")
		if scenario == "" {
			return nil
		}
		m, err := monthFlags(cmd)
		if err != nil {
			return err
		}
		res, err := a.LoadScenario(ctx, scenario, m)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "scenario %s loaded for %s: %d employees, %d entries, closed=%t\n",
			res.ScenarioID, m.Key(), res.Employees, res.Entries, res.Closed)
		return nil
	})
}
