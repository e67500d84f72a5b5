package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "pannier",
	Short:   "Object storage server with a built-in file browser",
	Long: `Pannier is a lightweight object storage server that exposes a flat
key namespace through a hierarchical file browser, with shareable
public links for every stored object.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		readConfig(cmd)
		setupLogging()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("store-backend", "", "store backend: fs, memory, sqlite, postgres (default: fs, env: PANNIER_STORE_BACKEND)")
	rootCmd.PersistentFlags().String("store-path", "", "data directory for the fs backend (default: ./data, env: PANNIER_STORE_PATH)")
	rootCmd.PersistentFlags().String("store-dsn", "", "database connection string for sqlite/postgres (env: PANNIER_STORE_DSN)")

	_ = viper.BindPFlag("store.backend", rootCmd.PersistentFlags().Lookup("store-backend"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store-path"))
	_ = viper.BindPFlag("store.dsn", rootCmd.PersistentFlags().Lookup("store-dsn"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
