package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var payCmd = &cobra.Command{
	Use:   "pay <user-id> <amount>",
	Short: "Record a payment and credit commissions up the referral line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}

		a, err := setupFromCmd(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		commissions, err := a.payments.ProcessPayment(cmd.Context(), args[0], amount)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(commissions) == 0 {
			fmt.Fprintln(out, "Payment recorded. No referrers to credit.")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LEVEL\tREFERRER\tRATE\tAMOUNT")
		for _, c := range commissions {
			fmt.Fprintf(w, "%d\t%s\t%s%%\t%s\n", c.Level, c.ReferrerID, c.Percentage.String(), c.Amount.StringFixed(2))
		}
		return w.Flush()
	},
}

var cabinetCmd = &cobra.Command{
	Use:   "cabinet <user-id>",
	Short: "Show balance, recent transactions and referrals of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupFromCmd(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, userID := cmd.Context(), args[0]
		limit, _ := cmd.Flags().GetInt("limit")

		balance, err := a.payments.Balance(ctx, userID)
		if err != nil {
			return err
		}
		txs, err := a.payments.Transactions(ctx, userID, limit)
		if err != nil {
			return err
		}
		downline, err := a.payments.Downline(ctx, userID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Balance: %s\n\n", balance.Amount.StringFixed(2))

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tAMOUNT\tDESCRIPTION")
		for _, tx := range txs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", tx.CreatedAt.Format("2006-01-02 15:04"), tx.Amount.StringFixed(2), tx.Description)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LEVEL\tUSER\tJOINED")
		for _, d := range downline {
			fmt.Fprintf(w, "%d\t%s\t%s\n", d.Level, d.Username, d.JoinedAt.Format("2006-01-02"))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(payCmd, cabinetCmd)
	cabinetCmd.Flags().Int("limit", 20, "Number of transactions to show")
}
