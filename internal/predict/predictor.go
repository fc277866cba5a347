// Package predict turns raw feature vectors into salary estimates
// using a trained network and its scaler.
package predict

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"

	"github.com/salarylens/salarylens/internal/feature"
	"github.com/salarylens/salarylens/internal/model"
	"github.com/salarylens/salarylens/internal/nn"
)

// Predictor holds one {network, scaler} pair for its lifetime. Both are
// read-only after training, so a single Predictor serves every call.
type Predictor struct {
	net    *nn.Network
	scaler *feature.Scaler
	meta   model.Metadata
}

// New builds a predictor around a trained network.
func New(net *nn.Network, scaler *feature.Scaler, meta model.Metadata) *Predictor {
	return &Predictor{net: net, scaler: scaler, meta: meta}
}

// Metadata reports the provenance of the underlying model.
func (p *Predictor) Metadata() model.Metadata {
	return p.meta
}

// Predict estimates the salary for one raw feature vector: standardize,
// forward pass in eval mode, de-standardize, clamp to zero, round.
// Numeric faults wrap model.ErrPrediction and leave the predictor
// usable.
func (p *Predictor) Predict(raw []float64) (model.Prediction, error) {
	out, err := p.PredictBatch([][]float64{raw})
	if err != nil {
		return model.Prediction{}, err
	}
	return out[0], nil
}

// PredictBatch estimates salaries for a batch in one forward pass. The
// results are identical (within floating-point tolerance) to calling
// Predict per vector, in order.
func (p *Predictor) PredictBatch(raws [][]float64) ([]model.Prediction, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	for i, v := range raws {
		if len(v) != model.FeatureCount {
			return nil, eris.Wrapf(model.ErrPrediction,
				"predict: vector %d has %d features, want %d", i, len(v), model.FeatureCount)
		}
	}

	// The standardized batch is function-local and unreferenced after
	// the forward pass, so nothing numeric outlives the call.
	x := mat.NewDense(len(raws), model.FeatureCount, nil)
	for i, v := range raws {
		std := p.scaler.TransformFeatures(v)
		for j, s := range std {
			x.Set(i, j, s)
		}
	}

	out := p.net.Forward(x, nn.Eval)
	preds := make([]model.Prediction, len(raws))
	for i := range raws {
		z := out.At(i, 0)
		if math.IsNaN(z) || math.IsInf(z, 0) {
			return nil, eris.Wrapf(model.ErrPrediction, "predict: non-finite output for vector %d", i)
		}
		salary := math.Max(0, p.scaler.InverseTransformTarget(z))
		preds[i] = model.Prediction{
			Salary: int(math.Round(salary)),
			Low:    int(math.Round(salary * model.ConfidenceBandLow)),
			High:   int(math.Round(salary * model.ConfidenceBandHigh)),
		}
	}
	return preds, nil
}

// EncodeProfile maps a raw job profile to the feature vector Predict
// expects, using the vocabulary the model was trained with.
func (p *Predictor) EncodeProfile(rec model.JobRecord) []float64 {
	return feature.Encode(rec, p.meta.TopJobTitles)
}
