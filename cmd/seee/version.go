package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/seee"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of seee",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "seee version %s\n", seee.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
