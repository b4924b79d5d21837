package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/seee/internal/presentation/graph"
	"github.com/aretw0/seee/internal/presentation/tui"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect, export and remove dialogue sessions in the configured storage.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List sessions, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupFromCmd(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		owner, _ := cmd.Flags().GetString("owner")
		sessions, err := a.sessions.List(cmd.Context(), owner)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		for _, s := range sessions {
			fmt.Fprintln(out, describe(s))
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the stored state of a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupFromCmd(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.sessions.Get(cmd.Context(), "", args[0])
		if err != nil {
			return fmt.Errorf("failed to load session '%s': %w", args[0], err)
		}
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionDocCmd = &cobra.Command{
	Use:   "doc <session-id>",
	Short: "Render the ideas of a session as a markdown document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupFromCmd(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.sessions.Get(cmd.Context(), "", args[0])
		if err != nil {
			return fmt.Errorf("failed to load session '%s': %w", args[0], err)
		}
		author, _ := cmd.Flags().GetString("author")
		doc := a.engine.Document(s, author)
		if doc == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "The document is empty.")
			return nil
		}

		if pretty, _ := cmd.Flags().GetBool("render"); pretty {
			render, err := tui.NewRenderer(0)
			if err != nil {
				return err
			}
			if doc, err = render(doc); err != nil {
				return err
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), doc)
		return nil
	},
}

var sessionGraphCmd = &cobra.Command{
	Use:   "graph <session-id>",
	Short: "Export the idea hierarchy of a session as a Mermaid diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupFromCmd(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.sessions.Get(cmd.Context(), "", args[0])
		if err != nil {
			return fmt.Errorf("failed to load session '%s': %w", args[0], err)
		}
		h := a.engine.Hierarchy(s)
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(h, &graph.Overlay{CurrentConcept: s.Cursor.CurrentConcept}))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setupFromCmd(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		failed := 0
		for _, id := range args {
			if err := a.sessions.Delete(cmd.Context(), "", id); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d sessions could not be removed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionDocCmd, sessionGraphCmd, sessionRmCmd)

	sessionLsCmd.Flags().String("owner", "", "Only list sessions of this owner")
	sessionDocCmd.Flags().String("author", "", "Name printed under the title")
	sessionDocCmd.Flags().Bool("render", false, "Render the markdown for the terminal")
}

func setupFromCmd(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return setup(cmd.Context(), cfg)
}
