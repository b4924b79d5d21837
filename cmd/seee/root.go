package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/seee/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "seee",
	Short: "seee is a guided self-exploration dialogue service",
	Long: `seee walks a person through describing an idea: its goal, parts, founder,
consequences and conclusion, then decomposes the parts into ideas of their own.
It also runs the referral cabinet that pays commissions up the referral line.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "seee.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("storage", "", "Storage driver: memory, file, sqlite, postgres or redis")
	rootCmd.PersistentFlags().String("dsn", "", "SQL data source (SQLite path or Postgres URL)")
	rootCmd.PersistentFlags().String("dir", "", "Data directory for the file driver")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the configuration file and environment, then applies
// the flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	overrides := map[string]*string{
		"storage":   &cfg.Storage.Driver,
		"dsn":       &cfg.Storage.DSN,
		"dir":       &cfg.Storage.Dir,
		"log-level": &cfg.Log.Level,
	}
	for name, dst := range overrides {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	return cfg, cfg.Validate()
}
