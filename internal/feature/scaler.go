package feature

import "math"

// Epsilon guards every standardization division so a constant column
// (std 0) maps to 0 instead of dividing by zero.
const Epsilon = 1e-8

// Scaler holds the standardization parameters fitted once over the
// training set. It is immutable after FitScaler and must be persisted
// verbatim alongside the model: the learned weights are only meaningful
// relative to these exact means and stds. JSON keys follow the
// persisted cache document format.
type Scaler struct {
	FeatureMean []float64 `json:"featureMean"`
	FeatureStd  []float64 `json:"featureStd"`
	TargetMean  float64   `json:"targetMean"`
	TargetStd   float64   `json:"targetStd"`
}

// FitScaler computes per-column mean and population standard deviation
// over the feature matrix, and scalar mean/std of the target vector.
func FitScaler(features [][]float64, targets []float64) *Scaler {
	cols := 0
	if len(features) > 0 {
		cols = len(features[0])
	}
	s := &Scaler{
		FeatureMean: make([]float64, cols),
		FeatureStd:  make([]float64, cols),
	}

	n := float64(len(features))
	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := range features {
			sum += features[i][j]
		}
		mean := sum / n

		variance := 0.0
		for i := range features {
			d := features[i][j] - mean
			variance += d * d
		}
		variance /= n

		s.FeatureMean[j] = mean
		s.FeatureStd[j] = math.Sqrt(variance)
	}

	s.TargetMean, s.TargetStd = meanStd(targets)
	return s
}

func meanStd(xs []float64) (mean, std float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean = sum / n

	variance := 0.0
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / n)
}

// TransformFeatures standardizes one feature vector.
func (s *Scaler) TransformFeatures(v []float64) []float64 {
	out := make([]float64, len(v))
	for j, x := range v {
		out[j] = (x - s.FeatureMean[j]) / (s.FeatureStd[j] + Epsilon)
	}
	return out
}

// TransformMatrix standardizes a whole feature matrix.
func (s *Scaler) TransformMatrix(features [][]float64) [][]float64 {
	out := make([][]float64, len(features))
	for i, v := range features {
		out[i] = s.TransformFeatures(v)
	}
	return out
}

// TransformTarget standardizes a target value.
func (s *Scaler) TransformTarget(y float64) float64 {
	return (y - s.TargetMean) / (s.TargetStd + Epsilon)
}

// TransformTargets standardizes a target vector.
func (s *Scaler) TransformTargets(ys []float64) []float64 {
	out := make([]float64, len(ys))
	for i, y := range ys {
		out[i] = s.TransformTarget(y)
	}
	return out
}

// InverseTransformTarget maps a standardized model output back to the
// salary scale.
func (s *Scaler) InverseTransformTarget(z float64) float64 {
	return z*s.TargetStd + s.TargetMean
}
