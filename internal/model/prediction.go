package model

// Prediction is a salary estimate with its confidence band. The band is
// a fixed ±15% heuristic, not a statistically derived interval.
type Prediction struct {
	Salary int `json:"salary"`
	Low    int `json:"low"`
	High   int `json:"high"`
}

// ConfidenceBandLow and ConfidenceBandHigh are the band multipliers
// applied to every prediction.
const (
	ConfidenceBandLow  = 0.85
	ConfidenceBandHigh = 1.15
)
