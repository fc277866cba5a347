package nn

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"

	"github.com/salarylens/salarylens/internal/model"
)

// TrainConfig carries the training hyperparameters. Defaults match the
// fixed model design; tests shrink epochs.
type TrainConfig struct {
	Epochs          int
	BatchSize       int
	ValidationSplit float64
	LearningRate    float64
}

// DefaultTrainConfig returns the production hyperparameters.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:          100,
		BatchSize:       32,
		ValidationSplit: 0.2,
		LearningRate:    0.001,
	}
}

// Listener receives per-epoch training progress. Implementations decide
// where it goes; the loop itself never writes to any output stream.
type Listener interface {
	OnEpoch(epoch, epochs int, loss, valLoss float64)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(epoch, epochs int, loss, valLoss float64)

// OnEpoch implements Listener.
func (f ListenerFunc) OnEpoch(epoch, epochs int, loss, valLoss float64) {
	f(epoch, epochs, loss, valLoss)
}

// adam is the Adam optimizer over the network's dense parameters.
type adam struct {
	lr, beta1, beta2, eps float64
	t                     float64

	mw, vw, mb, vb []*mat.Dense
}

func newAdam(lr float64, dense []*denseLayer) *adam {
	o := &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-8}
	for _, d := range dense {
		o.mw = append(o.mw, mat.NewDense(d.in, d.out, nil))
		o.vw = append(o.vw, mat.NewDense(d.in, d.out, nil))
		o.mb = append(o.mb, mat.NewDense(1, d.out, nil))
		o.vb = append(o.vb, mat.NewDense(1, d.out, nil))
	}
	return o
}

func (o *adam) step(dense []*denseLayer) {
	o.t++
	c1 := 1 - math.Pow(o.beta1, o.t)
	c2 := 1 - math.Pow(o.beta2, o.t)

	for i, d := range dense {
		o.update(d.w, d.dw, o.mw[i], o.vw[i], c1, c2)
		o.update(d.b, d.db, o.mb[i], o.vb[i], c1, c2)
	}
}

func (o *adam) update(param, grad, m, v *mat.Dense, c1, c2 float64) {
	rows, cols := param.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			g := grad.At(i, j)
			mij := o.beta1*m.At(i, j) + (1-o.beta1)*g
			vij := o.beta2*v.At(i, j) + (1-o.beta2)*g*g
			m.Set(i, j, mij)
			v.Set(i, j, vij)
			param.Set(i, j, param.At(i, j)-o.lr*(mij/c1)/(math.Sqrt(vij/c2)+o.eps))
		}
	}
}

// mse returns the mean squared error over a column of predictions and
// its gradient with respect to the predictions.
func mse(pred, want *mat.Dense) (float64, *mat.Dense) {
	rows, _ := pred.Dims()
	grad := mat.NewDense(rows, 1, nil)
	sum := 0.0
	for i := 0; i < rows; i++ {
		e := pred.At(i, 0) - want.At(i, 0)
		sum += e * e
		grad.Set(i, 0, 2*e/float64(rows))
	}
	return sum / float64(rows), grad
}

// Fit trains the network on standardized features and targets. Each
// epoch reshuffles the data, holds out ValidationSplit of it, and runs
// mini-batch Adam over the rest. The context is checked every epoch so
// an abandoned run stops promptly. Any numeric fault wraps
// model.ErrTraining.
func (n *Network) Fit(ctx context.Context, features [][]float64, targets []float64, cfg TrainConfig, listener Listener) error {
	if len(features) == 0 {
		return eris.Wrap(model.ErrTraining, "nn: no training data")
	}
	if len(features) != len(targets) {
		return eris.Wrapf(model.ErrTraining, "nn: %d features vs %d targets", len(features), len(targets))
	}
	if cfg.Epochs <= 0 || cfg.BatchSize <= 0 {
		return eris.Wrap(model.ErrTraining, "nn: epochs and batch size must be positive")
	}

	opt := newAdam(cfg.LearningRate, n.dense)
	total := len(features)

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "nn: training cancelled")
		}

		perm := n.rng.Perm(total)
		valN := int(float64(total) * cfg.ValidationSplit)
		valIdx, trainIdx := perm[:valN], perm[valN:]
		if len(trainIdx) == 0 {
			return eris.Wrap(model.ErrTraining, "nn: validation split leaves no training data")
		}

		var epochLoss float64
		var batches int
		for start := 0; start < len(trainIdx); start += cfg.BatchSize {
			end := min(start+cfg.BatchSize, len(trainIdx))
			x, y := batchMatrix(features, targets, trainIdx[start:end])

			pred := n.Forward(x, Train)
			loss, grad := mse(pred, y)
			if math.IsNaN(loss) || math.IsInf(loss, 0) {
				return eris.Wrapf(model.ErrTraining, "nn: loss diverged at epoch %d", epoch)
			}
			n.backward(grad)
			opt.step(n.dense)

			epochLoss += loss
			batches++
		}
		epochLoss /= float64(batches)

		valLoss := epochLoss
		if len(valIdx) > 0 {
			x, y := batchMatrix(features, targets, valIdx)
			pred := n.Forward(x, Eval)
			valLoss, _ = mse(pred, y)
		}

		if listener != nil {
			listener.OnEpoch(epoch, cfg.Epochs, epochLoss, valLoss)
		}
	}
	return nil
}

func batchMatrix(features [][]float64, targets []float64, idx []int) (*mat.Dense, *mat.Dense) {
	cols := len(features[0])
	x := mat.NewDense(len(idx), cols, nil)
	y := mat.NewDense(len(idx), 1, nil)
	for i, k := range idx {
		for j := 0; j < cols; j++ {
			x.Set(i, j, features[k][j])
		}
		y.Set(i, 0, targets[k])
	}
	return x, y
}
