// Package pipeline wires ingestion, aggregation, encoding, training,
// and caching into the load/train/predict protocol the CLI and HTTP
// surfaces consume.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/salarylens/salarylens/internal/cache"
	"github.com/salarylens/salarylens/internal/feature"
	"github.com/salarylens/salarylens/internal/ingest"
	"github.com/salarylens/salarylens/internal/model"
	"github.com/salarylens/salarylens/internal/nn"
	"github.com/salarylens/salarylens/internal/predict"
	"github.com/salarylens/salarylens/internal/stats"
)

// ProcessedData is everything derived from one dataset pass: the valid
// records, the display statistics, and the positionally aligned
// training features/targets with their vocabulary.
type ProcessedData struct {
	Records    []model.JobRecord
	Stats      model.StatTables
	Vocabulary model.Vocabulary
	Features   [][]float64
	Targets    []float64
}

// Pipeline owns the cache-or-train protocol. The cache is injected so
// tests can substitute the in-memory implementation.
type Pipeline struct {
	cache cache.Cache
	train nn.TrainConfig
	seed  int64
}

// New builds a pipeline around a cache and training configuration.
func New(c cache.Cache, train nn.TrainConfig, seed int64) *Pipeline {
	return &Pipeline{cache: c, train: train, seed: seed}
}

// LoadAndProcessData ingests the dataset and derives statistics and
// training features. The two derivations are independent and run
// concurrently.
func (p *Pipeline) LoadAndProcessData(ctx context.Context, r io.Reader) (*ProcessedData, error) {
	records, err := ingest.Parse(r)
	if err != nil {
		return nil, err
	}

	pd := &ProcessedData{Records: records}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		pd.Stats = stats.Tables(records)
		return nil
	})
	g.Go(func() error {
		pd.Vocabulary = feature.BuildVocabulary(records)
		pd.Features, pd.Targets = feature.EncodeAll(records, pd.Vocabulary)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("pipeline: dataset processed",
		zap.Int("records", len(records)),
		zap.Int("vocabulary", len(pd.Vocabulary)),
	)
	return pd, nil
}

// GetOrTrainModel returns a predictor for the dataset: a warm start
// from a compatible cached snapshot when one exists, otherwise a fresh
// training run whose result replaces the cache entry.
func (p *Pipeline) GetOrTrainModel(ctx context.Context, pd *ProcessedData, listener nn.Listener) (*predict.Predictor, error) {
	snap, err := p.cache.Load(ctx)
	if err != nil {
		return nil, err
	}

	if snap != nil && p.compatible(snap, pd) {
		net, err := nn.FromWeights(snap.Weights)
		if err == nil {
			zap.L().Info("pipeline: warm start from cache",
				zap.String("version", snap.Metadata.Version),
				zap.Time("trained_at", snap.Metadata.TrainedAt),
			)
			return predict.New(net, &snap.Scaler, snap.Metadata), nil
		}
		// A shape mismatch inside the weights is a stale snapshot;
		// fall through to retraining.
		zap.L().Warn("pipeline: cached weights unusable", zap.Error(err))
	}

	return p.trainFresh(ctx, pd, listener)
}

func (p *Pipeline) trainFresh(ctx context.Context, pd *ProcessedData, listener nn.Listener) (*predict.Predictor, error) {
	start := time.Now()

	scaler := feature.FitScaler(pd.Features, pd.Targets)
	stdFeatures := scaler.TransformMatrix(pd.Features)
	stdTargets := scaler.TransformTargets(pd.Targets)

	net := nn.New(p.seed)
	if err := net.Fit(ctx, stdFeatures, stdTargets, p.train, listener); err != nil {
		return nil, err
	}

	meta := model.Metadata{
		Version:      model.Version,
		TrainedAt:    time.Now().UTC(),
		DataSize:     len(pd.Records),
		Features:     model.FeatureNames,
		TopJobTitles: pd.Vocabulary,
		RunID:        uuid.New().String(),
	}
	snap := &cache.Snapshot{
		Weights:  net.Weights(),
		Scaler:   *scaler,
		Metadata: meta,
	}

	// Clear before write; a crash in between leaves an empty cache,
	// which the load protocol treats as a normal absent case.
	if err := p.cache.Clear(ctx); err != nil {
		zap.L().Warn("pipeline: clear before save failed", zap.Error(err))
	}
	if err := p.cache.Save(ctx, snap); err != nil {
		// The freshly trained model still works; persistence is best
		// effort.
		zap.L().Warn("pipeline: cache save failed", zap.Error(err))
	}

	zap.L().Info("pipeline: model trained",
		zap.Int("records", len(pd.Records)),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("run_id", meta.RunID),
	)
	return predict.New(net, scaler, meta), nil
}

// compatible reports whether a cached snapshot can serve the freshly
// processed dataset: same format version, same feature width, same
// vocabulary size.
func (p *Pipeline) compatible(snap *cache.Snapshot, pd *ProcessedData) bool {
	switch {
	case snap.Metadata.Version != model.Version:
		zap.L().Info("pipeline: cache version mismatch, retraining",
			zap.String("cached", snap.Metadata.Version),
			zap.String("expected", model.Version),
		)
		return false
	case len(snap.Metadata.Features) != model.FeatureCount:
		zap.L().Info("pipeline: cached feature list mismatch, retraining",
			zap.Int("cached", len(snap.Metadata.Features)),
		)
		return false
	case len(snap.Metadata.TopJobTitles) != len(pd.Vocabulary):
		zap.L().Info("pipeline: cached vocabulary mismatch, retraining",
			zap.Int("cached", len(snap.Metadata.TopJobTitles)),
			zap.Int("fresh", len(pd.Vocabulary)),
		)
		return false
	}
	return true
}

// ModelInfo reports the cached model's metadata, or nil when no model
// is cached.
func (p *Pipeline) ModelInfo(ctx context.Context) (*model.Metadata, error) {
	snap, err := p.cache.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: model info")
	}
	if snap == nil {
		return nil, nil
	}
	return &snap.Metadata, nil
}

// ClearCache removes the durable local model copy.
func (p *Pipeline) ClearCache(ctx context.Context) error {
	return p.cache.Clear(ctx)
}
