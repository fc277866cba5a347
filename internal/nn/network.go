// Package nn implements the salary regression network: a fixed
// feed-forward architecture with ReLU hidden layers, dropout, L2 on the
// wide layers, and an Adam-driven training loop.
package nn

import (
	"math"
	"math/rand"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"

	"github.com/salarylens/salarylens/internal/model"
)

// Mode selects forward-pass behavior. Dropout is active only in Train;
// in Eval it is the identity.
type Mode int

const (
	// Train enables dropout masking and gradient caching.
	Train Mode = iota
	// Eval runs a deterministic inference pass.
	Eval
)

// Fixed architecture: 6 -> 256 -> 128 -> 64 -> 32 -> 1. The two wide
// layers carry L2 regularization; dropout follows each of them.
const (
	inputSize = model.FeatureCount
	l2Lambda  = 0.01

	dropoutWide   = 0.3
	dropoutNarrow = 0.2
)

var hiddenSizes = []int{256, 128, 64, 32}

type layer interface {
	forward(x *mat.Dense, mode Mode, rng *rand.Rand) *mat.Dense
	backward(grad *mat.Dense) *mat.Dense
}

// denseLayer is a fully connected layer, optionally ReLU-activated and
// L2-regularized.
type denseLayer struct {
	in, out int
	w       *mat.Dense // in x out
	b       *mat.Dense // 1 x out
	relu    bool
	l2      float64

	// forward caches, valid between a Train forward and its backward
	x *mat.Dense
	z *mat.Dense

	// gradients, populated by backward
	dw *mat.Dense
	db *mat.Dense
}

func newDense(in, out int, relu bool, l2 float64, rng *rand.Rand) *denseLayer {
	w := mat.NewDense(in, out, nil)
	scale := math.Sqrt(2 / float64(in)) // He init
	for i := 0; i < in; i++ {
		for j := 0; j < out; j++ {
			w.Set(i, j, rng.NormFloat64()*scale)
		}
	}
	return &denseLayer{
		in:   in,
		out:  out,
		w:    w,
		b:    mat.NewDense(1, out, nil),
		relu: relu,
		l2:   l2,
	}
}

func (d *denseLayer) forward(x *mat.Dense, mode Mode, _ *rand.Rand) *mat.Dense {
	rows, _ := x.Dims()

	z := mat.NewDense(rows, d.out, nil)
	z.Mul(x, d.w)
	for i := 0; i < rows; i++ {
		for j := 0; j < d.out; j++ {
			z.Set(i, j, z.At(i, j)+d.b.At(0, j))
		}
	}

	if mode == Train {
		d.x = x
		d.z = z
	}

	if !d.relu {
		return z
	}
	a := mat.NewDense(rows, d.out, nil)
	a.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, z)
	return a
}

func (d *denseLayer) backward(grad *mat.Dense) *mat.Dense {
	rows, _ := grad.Dims()

	dz := grad
	if d.relu {
		dz = mat.NewDense(rows, d.out, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < d.out; j++ {
				if d.z.At(i, j) > 0 {
					dz.Set(i, j, grad.At(i, j))
				}
			}
		}
	}

	d.dw = mat.NewDense(d.in, d.out, nil)
	d.dw.Mul(d.x.T(), dz)
	if d.l2 > 0 {
		var reg mat.Dense
		reg.Scale(2*d.l2, d.w)
		d.dw.Add(d.dw, &reg)
	}

	d.db = mat.NewDense(1, d.out, nil)
	for j := 0; j < d.out; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += dz.At(i, j)
		}
		d.db.Set(0, j, sum)
	}

	dx := mat.NewDense(rows, d.in, nil)
	dx.Mul(dz, d.w.T())
	return dx
}

// dropoutLayer uses inverted dropout: surviving units are scaled by
// 1/(1-rate) in Train so Eval needs no rescaling.
type dropoutLayer struct {
	rate float64
	mask *mat.Dense
}

func (d *dropoutLayer) forward(x *mat.Dense, mode Mode, rng *rand.Rand) *mat.Dense {
	if mode == Eval {
		return x
	}
	rows, cols := x.Dims()
	d.mask = mat.NewDense(rows, cols, nil)
	keep := 1 - d.rate
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if rng.Float64() < keep {
				d.mask.Set(i, j, 1/keep)
			}
		}
	}
	out := mat.NewDense(rows, cols, nil)
	out.MulElem(x, d.mask)
	return out
}

func (d *dropoutLayer) backward(grad *mat.Dense) *mat.Dense {
	rows, cols := grad.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.MulElem(grad, d.mask)
	return out
}

// Network is the regression model. Shared read-only after training; a
// single rng drives both init and dropout, so training runs with the
// same seed are reproducible.
type Network struct {
	layers []layer
	dense  []*denseLayer
	rng    *rand.Rand
}

// New builds the fixed architecture with freshly initialized weights.
func New(seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))
	n := &Network{rng: rng}

	add := func(d *denseLayer) {
		n.layers = append(n.layers, d)
		n.dense = append(n.dense, d)
	}

	add(newDense(inputSize, hiddenSizes[0], true, l2Lambda, rng))
	n.layers = append(n.layers, &dropoutLayer{rate: dropoutWide})
	add(newDense(hiddenSizes[0], hiddenSizes[1], true, l2Lambda, rng))
	n.layers = append(n.layers, &dropoutLayer{rate: dropoutNarrow})
	add(newDense(hiddenSizes[1], hiddenSizes[2], true, 0, rng))
	add(newDense(hiddenSizes[2], hiddenSizes[3], true, 0, rng))
	add(newDense(hiddenSizes[3], 1, false, 0, rng))

	return n
}

// Forward runs the network over a batch (rows = samples, cols =
// standardized features) and returns one output column.
func (n *Network) Forward(x *mat.Dense, mode Mode) *mat.Dense {
	out := x
	for _, l := range n.layers {
		out = l.forward(out, mode, n.rng)
	}
	return out
}

func (n *Network) backward(grad *mat.Dense) {
	for i := len(n.layers) - 1; i >= 0; i-- {
		grad = n.layers[i].backward(grad)
	}
}

// LayerWeights is the serialized form of one dense layer, row-major.
type LayerWeights struct {
	In  int       `json:"in"`
	Out int       `json:"out"`
	W   []float64 `json:"w"`
	B   []float64 `json:"b"`
}

// Weights exports the dense layer parameters in network order.
func (n *Network) Weights() []LayerWeights {
	out := make([]LayerWeights, len(n.dense))
	for i, d := range n.dense {
		w := make([]float64, 0, d.in*d.out)
		for r := 0; r < d.in; r++ {
			for c := 0; c < d.out; c++ {
				w = append(w, d.w.At(r, c))
			}
		}
		b := make([]float64, d.out)
		for c := 0; c < d.out; c++ {
			b[c] = d.b.At(0, c)
		}
		out[i] = LayerWeights{In: d.in, Out: d.out, W: w, B: b}
	}
	return out
}

// FromWeights rebuilds the fixed architecture around previously trained
// weights. The layer shapes must match the architecture exactly.
func FromWeights(weights []LayerWeights) (*Network, error) {
	n := New(0)
	if len(weights) != len(n.dense) {
		return nil, eris.Errorf("nn: expected %d weight layers, got %d", len(n.dense), len(weights))
	}
	for i, lw := range weights {
		d := n.dense[i]
		if lw.In != d.in || lw.Out != d.out {
			return nil, eris.Errorf("nn: layer %d shape %dx%d, expected %dx%d",
				i, lw.In, lw.Out, d.in, d.out)
		}
		if len(lw.W) != d.in*d.out || len(lw.B) != d.out {
			return nil, eris.Errorf("nn: layer %d weight length mismatch", i)
		}
		for r := 0; r < d.in; r++ {
			for c := 0; c < d.out; c++ {
				d.w.Set(r, c, lw.W[r*d.out+c])
			}
		}
		for c := 0; c < d.out; c++ {
			d.b.Set(0, c, lw.B[c])
		}
	}
	return n, nil
}
