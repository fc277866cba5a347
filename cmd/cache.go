package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the cached model",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show metadata for the cached model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := initPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		meta, err := e.Pipeline.ModelInfo(ctx)
		if err != nil {
			return err
		}
		if meta == nil {
			fmt.Println("no cached model")
			return nil
		}

		fmt.Printf("version:     %s\n", meta.Version)
		fmt.Printf("trained at:  %s\n", meta.TrainedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Printf("data size:   %d records\n", meta.DataSize)
		fmt.Printf("features:    %d\n", len(meta.Features))
		fmt.Printf("vocabulary:  %d titles\n", len(meta.TopJobTitles))
		if meta.RunID != "" {
			fmt.Printf("run id:      %s\n", meta.RunID)
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the locally cached model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := initPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Pipeline.ClearCache(ctx); err != nil {
			return err
		}
		zap.L().Info("cache cleared", zap.String("path", cfg.Cache.Path))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
