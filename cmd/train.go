package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salarylens/salarylens/internal/nn"
)

var (
	trainCSVPath string
	trainForce   bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the salary model and persist it to the cache",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := initPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		if trainForce {
			if err := e.Pipeline.ClearCache(ctx); err != nil {
				return err
			}
			zap.L().Info("train: cache cleared, retraining")
		}

		path := trainCSVPath
		if path == "" {
			path = cfg.Dataset.Path
		}

		pred, pd, err := readyPredictor(ctx, e, path, epochLogger())
		if err != nil {
			return err
		}

		meta := pred.Metadata()
		zap.L().Info("train: model ready",
			zap.String("version", meta.Version),
			zap.Time("trained_at", meta.TrainedAt),
			zap.Int("data_size", meta.DataSize),
			zap.Int("vocabulary", len(meta.TopJobTitles)),
			zap.Int("records", len(pd.Records)),
		)
		return nil
	},
}

// epochLogger narrates training progress through the global logger:
// every epoch at debug, every tenth (and the last) at info.
func epochLogger() nn.Listener {
	return nn.ListenerFunc(func(epoch, epochs int, loss, valLoss float64) {
		log := zap.L().Debug
		if epoch%10 == 0 || epoch == epochs {
			log = zap.L().Info
		}
		log("train: epoch complete",
			zap.Int("epoch", epoch),
			zap.Int("epochs", epochs),
			zap.Float64("loss", loss),
			zap.Float64("val_loss", valLoss),
		)
	})
}

func init() {
	trainCmd.Flags().StringVar(&trainCSVPath, "csv", "", "dataset path (default from config)")
	trainCmd.Flags().BoolVar(&trainForce, "force", false, "discard any cached model and retrain")
	rootCmd.AddCommand(trainCmd)
}
