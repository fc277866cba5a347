package nn

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salarylens/salarylens/internal/model"
)

// syntheticData builds a standardized linear problem the network can
// learn quickly: target is a weighted sum of the six features.
func syntheticData(n int) ([][]float64, []float64) {
	features := make([][]float64, n)
	targets := make([]float64, n)
	for i := 0; i < n; i++ {
		f := []float64{
			float64(i%4) - 1.5,
			float64(i%3) - 1,
			float64(i%2) - 0.5,
			float64(i%5)/2 - 1,
			float64(i%7)/3 - 1,
			float64(i%11)/5 - 1,
		}
		features[i] = f
		targets[i] = 0.5*f[0] - 0.3*f[1] + 0.2*f[4]
	}
	return features, targets
}

func testConfig() TrainConfig {
	cfg := DefaultTrainConfig()
	cfg.Epochs = 20
	return cfg
}

func TestFitReducesLoss(t *testing.T) {
	features, targets := syntheticData(160)
	n := New(1)

	var losses []float64
	listener := ListenerFunc(func(epoch, epochs int, loss, valLoss float64) {
		assert.Equal(t, 20, epochs)
		losses = append(losses, loss)
	})

	err := n.Fit(context.Background(), features, targets, testConfig(), listener)
	require.NoError(t, err)
	require.Len(t, losses, 20)
	assert.Less(t, losses[len(losses)-1], losses[0], "training loss should decrease")
	for _, l := range losses {
		assert.False(t, math.IsNaN(l))
	}
}

func TestFitNilListener(t *testing.T) {
	features, targets := syntheticData(40)
	cfg := testConfig()
	cfg.Epochs = 2
	require.NoError(t, New(1).Fit(context.Background(), features, targets, cfg, nil))
}

func TestFitCancelled(t *testing.T) {
	features, targets := syntheticData(40)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(1).Fit(ctx, features, targets, testConfig(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFitValidation(t *testing.T) {
	features, targets := syntheticData(40)

	err := New(1).Fit(context.Background(), nil, nil, testConfig(), nil)
	assert.ErrorIs(t, err, model.ErrTraining)

	err = New(1).Fit(context.Background(), features, targets[:10], testConfig(), nil)
	assert.ErrorIs(t, err, model.ErrTraining)

	bad := testConfig()
	bad.Epochs = 0
	err = New(1).Fit(context.Background(), features, targets, bad, nil)
	assert.ErrorIs(t, err, model.ErrTraining)
}

func TestFitSeededReproducible(t *testing.T) {
	features, targets := syntheticData(80)
	cfg := testConfig()
	cfg.Epochs = 3

	a := New(5)
	require.NoError(t, a.Fit(context.Background(), features, targets, cfg, nil))
	b := New(5)
	require.NoError(t, b.Fit(context.Background(), features, targets, cfg, nil))

	assert.Equal(t, a.Weights(), b.Weights())
}
