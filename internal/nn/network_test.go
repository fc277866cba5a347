package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/salarylens/salarylens/internal/model"
)

func inputRow(vals ...float64) *mat.Dense {
	return mat.NewDense(1, len(vals), vals)
}

func TestNewDeterministicInit(t *testing.T) {
	a := New(42)
	b := New(42)
	assert.Equal(t, a.Weights(), b.Weights())

	c := New(43)
	assert.NotEqual(t, a.Weights(), c.Weights())
}

func TestForwardEvalDeterministic(t *testing.T) {
	n := New(1)
	x := inputRow(1, 2, 0, 1, 0.5, 3)

	first := n.Forward(x, Eval).At(0, 0)
	second := n.Forward(x, Eval).At(0, 0)
	assert.Equal(t, first, second, "eval mode must be dropout-free and deterministic")
	assert.False(t, math.IsNaN(first))
}

func TestForwardBatchShape(t *testing.T) {
	n := New(1)
	x := mat.NewDense(5, 6, nil)
	out := n.Forward(x, Eval)
	rows, cols := out.Dims()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 1, cols)
}

func TestForwardUnseenCategorySentinel(t *testing.T) {
	n := New(7)
	x := inputRow(4, 2, 0, 1, 0.5, float64(model.UnknownIndex))
	out := n.Forward(x, Eval).At(0, 0)
	assert.False(t, math.IsNaN(out))
	assert.False(t, math.IsInf(out, 0))
}

func TestWeightsRoundTrip(t *testing.T) {
	n := New(99)
	restored, err := FromWeights(n.Weights())
	require.NoError(t, err)

	x := inputRow(2, 1, 0, 2, 1, 5)
	assert.InDelta(t, n.Forward(x, Eval).At(0, 0), restored.Forward(x, Eval).At(0, 0), 1e-12)
}

func TestFromWeightsRejectsWrongLayerCount(t *testing.T) {
	_, err := FromWeights(New(0).Weights()[:2])
	require.Error(t, err)
}

func TestFromWeightsRejectsWrongShape(t *testing.T) {
	weights := New(0).Weights()
	weights[0].In = 7
	_, err := FromWeights(weights)
	require.Error(t, err)
}

func TestMSE(t *testing.T) {
	pred := mat.NewDense(2, 1, []float64{3, 5})
	want := mat.NewDense(2, 1, []float64{1, 5})
	loss, grad := mse(pred, want)
	assert.InDelta(t, 2.0, loss, 1e-12) // (4+0)/2
	assert.InDelta(t, 2.0, grad.At(0, 0), 1e-12)
	assert.InDelta(t, 0.0, grad.At(1, 0), 1e-12)
}
