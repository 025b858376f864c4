package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/clinic-ledger/app"
)

var trialBalanceCmd = &cobra.Command{
	Use:   "trial-balance",
	Short: "Print the trial balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			tb, err := a.Reports.TrialBalance(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "CODE\tACCOUNT\tTYPE\tDEBIT\tCREDIT\t")
			for _, r := range tb.Rows {
				if r.Debit.IsZero() && r.Credit.IsZero() {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
					r.Code, r.Name, r.Type, r.Debit.StringFixed(2), r.Credit.StringFixed(2))
			}
			fmt.Fprintf(w, "\tTOTAL\t\t%s\t%s\t\n", tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2))
			if err := w.Flush(); err != nil {
				return err
			}
			if !tb.Balanced {
				return fmt.Errorf("trial balance does not balance")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(trialBalanceCmd)
}
