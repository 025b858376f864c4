package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/warp/clinic-ledger/app"
)

var payrollCmd = &cobra.Command{
	Use:   "payroll",
	Short: "Calculate or close a payroll month",
}

var payrollCalculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Compute salary slips for every active employee with attendance",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := monthFlags(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Payroll.Calculate(ctx, m)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d slips, total net %s\n", m.Key(), res.Slips, res.TotalNet.StringFixed(2))
			for _, id := range res.Skipped {
				fmt.Fprintf(out, "  skipped %s (no attendance)\n", id)
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(out, "  warning: %s\n", w)
			}
			return nil
		})
	},
}

var payrollCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Post the payroll journal entry and close the payroll month",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := monthFlags(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Payroll.ClosePeriod(ctx, m)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: posted %s with %d lines, total net %s\n",
				m.Key(), res.Reference, res.Lines, res.TotalNet.StringFixed(2))
			for _, code := range res.UnmappedCodes {
				fmt.Fprintf(out, "  %s posted to payroll suspense\n", code)
			}
			ids := make([]string, 0, len(res.CreditedDays))
			for id := range res.CreditedDays {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(out, "  %s credited %s days off\n", id, res.CreditedDays[id])
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(payrollCmd)
	payrollCmd.AddCommand(payrollCalculateCmd, payrollCloseCmd)
	addMonthFlags(payrollCalculateCmd)
	addMonthFlags(payrollCloseCmd)
}
