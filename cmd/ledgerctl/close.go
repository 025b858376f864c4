package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/clinic-ledger/app"
)

var closeMonthCmd = &cobra.Command{
	Use:   "close-month",
	Short: "Close an accounting month into retained earnings",
	Example: `  ledgerctl close-month --year 2025 --month 3 --preview
  ledgerctl close-month --year 2025 --month 3`,
	RunE: runCloseMonth,
}

func init() {
	rootCmd.AddCommand(closeMonthCmd)
	addMonthFlags(closeMonthCmd)
	closeMonthCmd.Flags().Bool("preview", false, "show the closing entry without posting it")
}

func runCloseMonth(cmd *cobra.Command, args []string) error {
	m, err := monthFlags(cmd)
	if err != nil {
		return err
	}
	preview, _ := cmd.Flags().GetBool("preview")

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		if preview {
			p, err := a.Closer.Preview(ctx, m)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (%s)\n", m.Key(), p.Status)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "CODE\tACCOUNT\tBALANCE\t")
			for _, l := range p.Lines {
				fmt.Fprintf(w, "%s\t%s\t%s\t\n", l.Code, l.Name, l.Balance.StringFixed(2))
			}
			fmt.Fprintf(w, "\tREVENUE\t%s\t\n", p.TotalRevenue.StringFixed(2))
			fmt.Fprintf(w, "\tEXPENSES\t%s\t\n", p.TotalExpenses.StringFixed(2))
			fmt.Fprintf(w, "\tNET PROFIT\t%s\t\n", p.NetProfit.StringFixed(2))
			return w.Flush()
		}

		res, err := a.Closer.Close(ctx, m)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "closed %s: entry %s, net profit %s\n", m.Key(), res.Reference, res.NetProfit.StringFixed(2))
		return nil
	})
}
