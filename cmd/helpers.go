package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/salarylens/salarylens/internal/cache"
	"github.com/salarylens/salarylens/internal/config"
	"github.com/salarylens/salarylens/internal/nn"
	"github.com/salarylens/salarylens/internal/pipeline"
	"github.com/salarylens/salarylens/internal/predict"
)

// env bundles the pipeline with the resources it owns.
type env struct {
	Pipeline *pipeline.Pipeline
	sqlite   *cache.SQLiteCache
}

func (e *env) Close() {
	if e.sqlite != nil {
		if err := e.sqlite.Close(); err != nil {
			zap.L().Warn("cache close failed", zap.Error(err))
		}
	}
}

// initPipeline opens the tiered model cache and builds the pipeline
// from configuration.
func initPipeline(ctx context.Context, cfg *config.Config) (*env, error) {
	local, err := cache.NewSQLite(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}
	if err := local.Migrate(ctx); err != nil {
		local.Close()
		return nil, err
	}

	tiered := cache.NewTiered(cache.NewBundled(cfg.Cache.BundledDir), local)
	train := nn.TrainConfig{
		Epochs:          cfg.Train.Epochs,
		BatchSize:       cfg.Train.BatchSize,
		ValidationSplit: cfg.Train.ValidationSplit,
		LearningRate:    cfg.Train.LearningRate,
	}

	return &env{
		Pipeline: pipeline.New(tiered, train, cfg.Train.Seed),
		sqlite:   local,
	}, nil
}

// processDataset runs ingestion and feature derivation over the
// configured (or overridden) dataset file.
func processDataset(ctx context.Context, e *env, path string) (*pipeline.ProcessedData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()
	return e.Pipeline.LoadAndProcessData(ctx, f)
}

// readyPredictor loads or trains a model for the dataset and returns
// the predictor plus the processed data behind it.
func readyPredictor(ctx context.Context, e *env, path string, listener nn.Listener) (*predict.Predictor, *pipeline.ProcessedData, error) {
	pd, err := processDataset(ctx, e, path)
	if err != nil {
		return nil, nil, err
	}
	pred, err := e.Pipeline.GetOrTrainModel(ctx, pd, listener)
	if err != nil {
		return nil, nil, err
	}
	return pred, pd, nil
}
