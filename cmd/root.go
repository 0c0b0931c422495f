package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thriftngo/storefront-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Marketplace storefront scraping toolkit",
	Long:  "Drives a supervised browser against a seller storefront: scrapes stats and listings, enriches from item pages, merges into CSV, sweeps pending offers.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
