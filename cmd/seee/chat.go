package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/seee"
	"github.com/aretw0/seee/internal/presentation/tui"
	"github.com/aretw0/seee/pkg/sanitize"
)

var chatCmd = &cobra.Command{
	Use:   "chat [session-id]",
	Short: "Run an interactive dialogue in the terminal",
	Long: `Starts a new dialogue, or resumes the given session, reading answers from
standard input. Type /help inside the chat for the available commands.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := setup(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		runner := seee.NewRunner()
		runner.Input = cmd.InOrStdin()
		runner.Output = cmd.OutOrStdout()
		runner.Sanitize = sanitize.Input

		headless, _ := cmd.Flags().GetBool("headless")
		runner.Headless = headless
		if out, ok := runner.Output.(*os.File); ok && !headless && tui.IsTerminal(out) {
			tui.PrintBanner(out, seee.Version)
			if render, err := tui.NewRenderer(tui.Width(out)); err == nil {
				runner.Renderer = render
			}
		}

		owner := localOwner()
		var sessionID string
		if len(args) == 1 {
			sessionID = args[0]
		} else {
			s, _, err := a.sessions.Start(cmd.Context(), owner)
			if err != nil {
				return err
			}
			sessionID = s.ID
			fmt.Fprintf(cmd.ErrOrStderr(), "Session %s\n", sessionID)
		}
		return runner.Run(cmd.Context(), a.engine, a.sessions, owner, sessionID)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("headless", false, "Plain output without banner or markdown rendering")
}
