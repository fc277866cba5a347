package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salarylens/salarylens/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "salarylens",
	Short: "Job salary exploration and prediction",
	Long:  "Ingests a job-salary dataset, aggregates per-dimension statistics, and trains a cached feed-forward regression model that predicts salaries for hypothetical job profiles.",
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
