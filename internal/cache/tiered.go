package cache

import "context"

// Tiered composes the bundled read-only tier with the durable local
// tier. Loads prefer the bundled model so fresh installs work without
// prior training; writes and clears only touch the local tier.
type Tiered struct {
	bundled *BundledCache
	local   Cache
}

// NewTiered builds the standard two-tier cache.
func NewTiered(bundled *BundledCache, local Cache) *Tiered {
	return &Tiered{bundled: bundled, local: local}
}

// Load tries the bundled tier, then the local tier.
func (t *Tiered) Load(ctx context.Context) (*Snapshot, error) {
	if t.bundled != nil {
		if snap, err := t.bundled.Load(ctx); err != nil {
			return nil, err
		} else if snap != nil {
			return snap, nil
		}
	}
	return t.local.Load(ctx)
}

// Save writes to the local tier.
func (t *Tiered) Save(ctx context.Context, snap *Snapshot) error {
	return t.local.Save(ctx, snap)
}

// Clear removes the local copy. The bundled tier is immutable.
func (t *Tiered) Clear(ctx context.Context) error {
	return t.local.Clear(ctx)
}
