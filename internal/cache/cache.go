// Package cache persists trained models so a warm start can skip the
// training cost. A snapshot bundles the network weights, the scaler
// they were trained against, and provenance metadata; the three are
// only meaningful together and are stored and versioned as a unit.
package cache

import (
	"context"

	"github.com/salarylens/salarylens/internal/feature"
	"github.com/salarylens/salarylens/internal/model"
	"github.com/salarylens/salarylens/internal/nn"
)

// Snapshot is a trained model ready for persistence or inference.
type Snapshot struct {
	Weights  []nn.LayerWeights
	Scaler   feature.Scaler
	Metadata model.Metadata
}

// Document is the persisted scaler+metadata record. Its JSON shape is
// shared with the bundled artifacts, so the keys are frozen.
type Document struct {
	Scaler   feature.Scaler `json:"scaler"`
	Metadata model.Metadata `json:"metadata"`
}

// weightsArtifact wraps the weight list in the separate weights
// document.
type weightsArtifact struct {
	Weights []nn.LayerWeights `json:"weights"`
}

// Cache stores and retrieves one model snapshot. Load returns
// (nil, nil) when no usable snapshot exists; corrupted entries are
// self-healed to that same answer and never surface as errors.
type Cache interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Clear(ctx context.Context) error
}
