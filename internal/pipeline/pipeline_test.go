package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salarylens/salarylens/internal/cache"
	"github.com/salarylens/salarylens/internal/model"
	"github.com/salarylens/salarylens/internal/nn"
)

const csvHeader = "work_year,experience_level,employment_type,job_title,salary,salary_currency,salary_in_usd,employee_residence,remote_ratio,company_location,company_size\n"

func testDataset() string {
	levels := []string{"EN", "MI", "SE", "EX"}
	titles := []string{"Data Engineer", "Data Scientist", "ML Engineer", "Data Analyst"}
	sizes := []string{"S", "M", "L"}

	var b strings.Builder
	b.WriteString(csvHeader)
	for i := 0; i < 48; i++ {
		salary := 60000 + 25000*(i%4) + 1000*(i%7)
		fmt.Fprintf(&b, "%d,%s,FT,%s,0,USD,%d,US,%d,US,%s\n",
			2020+i%4, levels[i%4], titles[i%4], salary, (i%3)*50, sizes[i%3])
	}
	return b.String()
}

func testTrainConfig() nn.TrainConfig {
	return nn.TrainConfig{
		Epochs:          3,
		BatchSize:       16,
		ValidationSplit: 0.2,
		LearningRate:    0.001,
	}
}

func newTestPipeline() (*Pipeline, *cache.Memory) {
	mem := cache.NewMemory()
	return New(mem, testTrainConfig(), 1), mem
}

func TestLoadAndProcessData(t *testing.T) {
	p, _ := newTestPipeline()

	pd, err := p.LoadAndProcessData(context.Background(), strings.NewReader(testDataset()))
	require.NoError(t, err)

	assert.Len(t, pd.Records, 48)
	assert.Len(t, pd.Features, 48)
	assert.Len(t, pd.Targets, 48)
	assert.Len(t, pd.Vocabulary, 4)
	assert.NotEmpty(t, pd.Stats.ByExperience)
	assert.Len(t, pd.Stats.ByExperience, 4)

	// Alignment: targets follow record order.
	for i, r := range pd.Records {
		assert.Equal(t, r.SalaryUSD, pd.Targets[i])
	}
}

func TestLoadAndProcessDataPropagatesIngestErrors(t *testing.T) {
	p, _ := newTestPipeline()

	_, err := p.LoadAndProcessData(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, model.ErrEmptyDataset)

	_, err = p.LoadAndProcessData(context.Background(),
		strings.NewReader(csvHeader+"2023,SE,FT,Solo,0,USD,90000,US,0,US,M\n"))
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestGetOrTrainModelTrainsAndCaches(t *testing.T) {
	ctx := context.Background()
	p, mem := newTestPipeline()

	pd, err := p.LoadAndProcessData(ctx, strings.NewReader(testDataset()))
	require.NoError(t, err)

	var epochs int
	listener := nn.ListenerFunc(func(_, _ int, _, _ float64) { epochs++ })

	pred, err := p.GetOrTrainModel(ctx, pd, listener)
	require.NoError(t, err)
	assert.Equal(t, 3, epochs, "fresh train runs all epochs")

	snap, err := mem.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap, "training persists a snapshot")
	assert.Equal(t, model.Version, snap.Metadata.Version)
	assert.Equal(t, 48, snap.Metadata.DataSize)
	assert.Equal(t, model.FeatureNames, snap.Metadata.Features)
	assert.NotEmpty(t, snap.Metadata.RunID)

	out, err := pred.Predict(pd.Features[0])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out.Salary, 0)
}

func TestGetOrTrainModelWarmStart(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPipeline()

	pd, err := p.LoadAndProcessData(ctx, strings.NewReader(testDataset()))
	require.NoError(t, err)

	_, err = p.GetOrTrainModel(ctx, pd, nil)
	require.NoError(t, err)

	// Second call must not retrain.
	var epochs int
	listener := nn.ListenerFunc(func(_, _ int, _, _ float64) { epochs++ })
	pred, err := p.GetOrTrainModel(ctx, pd, listener)
	require.NoError(t, err)
	assert.Zero(t, epochs, "warm start skips training")

	out, err := pred.Predict([]float64{4, 2, 0, 1, 0.5, -1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out.Salary, 0)
}

func TestGetOrTrainModelVersionMismatchRetrains(t *testing.T) {
	ctx := context.Background()
	p, mem := newTestPipeline()

	pd, err := p.LoadAndProcessData(ctx, strings.NewReader(testDataset()))
	require.NoError(t, err)

	_, err = p.GetOrTrainModel(ctx, pd, nil)
	require.NoError(t, err)

	// Age the cached copy to a stale format version.
	snap, err := mem.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	snap.Metadata.Version = "0.9.0"
	require.NoError(t, mem.Save(ctx, snap))

	// Stale version triggers a retrain, never an error.
	var epochs int
	listener := nn.ListenerFunc(func(_, _ int, _, _ float64) { epochs++ })
	_, err = p.GetOrTrainModel(ctx, pd, listener)
	require.NoError(t, err)
	assert.Equal(t, 3, epochs)

	// The cache now holds the current version again.
	snap, err = mem.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, model.Version, snap.Metadata.Version)
}

func TestGetOrTrainModelVocabularyMismatchRetrains(t *testing.T) {
	ctx := context.Background()
	p, mem := newTestPipeline()

	pd, err := p.LoadAndProcessData(ctx, strings.NewReader(testDataset()))
	require.NoError(t, err)

	_, err = p.GetOrTrainModel(ctx, pd, nil)
	require.NoError(t, err)

	snap, err := mem.Load(ctx)
	require.NoError(t, err)
	snap.Metadata.TopJobTitles = snap.Metadata.TopJobTitles[:2]
	require.NoError(t, mem.Save(ctx, snap))

	var epochs int
	_, err = p.GetOrTrainModel(ctx, pd, nn.ListenerFunc(func(_, _ int, _, _ float64) { epochs++ }))
	require.NoError(t, err)
	assert.Equal(t, 3, epochs)
}

func TestModelInfoAndClearCache(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPipeline()

	info, err := p.ModelInfo(ctx)
	require.NoError(t, err)
	assert.Nil(t, info)

	pd, err := p.LoadAndProcessData(ctx, strings.NewReader(testDataset()))
	require.NoError(t, err)
	_, err = p.GetOrTrainModel(ctx, pd, nil)
	require.NoError(t, err)

	info, err = p.ModelInfo(ctx)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, model.Version, info.Version)

	require.NoError(t, p.ClearCache(ctx))
	info, err = p.ModelInfo(ctx)
	require.NoError(t, err)
	assert.Nil(t, info)
}
