package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/seee/internal/accounts"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts of the referral program",
}

var accountRegisterCmd = &cobra.Command{
	Use:   "register <username> <password>",
	Short: "Register an account, optionally below a referral code",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupFromCmd(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		code, _ := cmd.Flags().GetString("referral-code")
		account, err := a.accounts.Register(cmd.Context(), accounts.RegisterRequest{
			Username:     args[0],
			Password:     args[1],
			ReferralCode: code,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Registered %s\n", account.Username)
		fmt.Fprintf(out, "  id:            %s\n", account.ID)
		fmt.Fprintf(out, "  referral code: %s\n", account.ReferralCode)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountRegisterCmd)
	accountRegisterCmd.Flags().String("referral-code", "", "Referral code of the inviting account")
}
