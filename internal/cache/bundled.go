package cache

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Artifact file names inside the bundled directory. The paths are
// well-known so a fresh install loads the same model everywhere.
const (
	bundledWeightsFile = "model.json"
	bundledScalerFile  = "scaler.json"
)

// BundledCache is the read-only tier serving the model shipped with the
// application. It exists purely to avoid retraining cost on fresh
// installs; its metadata may be zero-valued when the bundled scaler
// document omits training provenance.
type BundledCache struct {
	dir string
}

// NewBundled points the tier at the well-known artifact directory.
func NewBundled(dir string) *BundledCache {
	return &BundledCache{dir: dir}
}

// Load reads the bundled artifacts. Missing or unreadable artifacts are
// an absent cache, never an error.
func (b *BundledCache) Load(_ context.Context) (*Snapshot, error) {
	if b.dir == "" {
		return nil, nil
	}

	docBytes, err := os.ReadFile(filepath.Join(b.dir, bundledScalerFile))
	if err != nil {
		return nil, nil
	}
	weightBytes, err := os.ReadFile(filepath.Join(b.dir, bundledWeightsFile))
	if err != nil {
		return nil, nil
	}

	snap, err := decodeSnapshot(string(docBytes), string(weightBytes))
	if err != nil {
		zap.L().Warn("cache: bundled artifacts unusable",
			zap.String("dir", b.dir),
			zap.Error(err),
		)
		return nil, nil
	}
	return snap, nil
}
