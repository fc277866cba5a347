package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// cacheKey is the well-known storage key the snapshot lives under.
const cacheKey = "salary-model"

// SQLiteCache is the durable local tier, backed by modernc.org/sqlite.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures
// WAL mode.
func NewSQLite(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}
	return &SQLiteCache{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS model_cache (
	id       TEXT PRIMARY KEY,
	key      TEXT NOT NULL UNIQUE,
	doc      TEXT NOT NULL,
	weights  TEXT NOT NULL,
	saved_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate creates the cache schema.
func (c *SQLiteCache) Migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "cache: migrate")
}

// Close releases the database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Load returns the stored snapshot, or (nil, nil) when none exists. A
// corrupt entry is deleted and reported as absent.
func (c *SQLiteCache) Load(ctx context.Context) (*Snapshot, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT doc, weights FROM model_cache WHERE key = ?`, cacheKey)

	var docJSON, weightsJSON string
	err := row.Scan(&docJSON, &weightsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "cache: load snapshot")
	}

	snap, err := decodeSnapshot(docJSON, weightsJSON)
	if err != nil {
		// Self-heal: drop the bad entry and degrade to retrain.
		zap.L().Warn("cache: corrupt entry, clearing",
			zap.String("key", cacheKey),
			zap.Error(err),
		)
		if err := c.Clear(ctx); err != nil {
			zap.L().Warn("cache: clear after corruption failed", zap.Error(err))
		}
		return nil, nil
	}
	return snap, nil
}

// Save replaces any stored snapshot. The old entry is cleared before
// the new one is written; a crash in between leaves the cache empty,
// which Load already treats as a normal absent case.
func (c *SQLiteCache) Save(ctx context.Context, snap *Snapshot) error {
	docJSON, err := json.Marshal(Document{Scaler: snap.Scaler, Metadata: snap.Metadata})
	if err != nil {
		return eris.Wrap(err, "cache: marshal document")
	}
	weightsJSON, err := json.Marshal(weightsArtifact{Weights: snap.Weights})
	if err != nil {
		return eris.Wrap(err, "cache: marshal weights")
	}

	if err := c.Clear(ctx); err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO model_cache (id, key, doc, weights, saved_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), cacheKey, string(docJSON), string(weightsJSON), time.Now().UTC(),
	)
	return eris.Wrap(err, "cache: insert snapshot")
}

// Clear removes the stored snapshot.
func (c *SQLiteCache) Clear(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM model_cache WHERE key = ?`, cacheKey)
	return eris.Wrap(err, "cache: clear")
}

func decodeSnapshot(docJSON, weightsJSON string) (*Snapshot, error) {
	var doc Document
	if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
		return nil, eris.Wrap(err, "cache: unmarshal document")
	}
	var wa weightsArtifact
	if err := json.Unmarshal([]byte(weightsJSON), &wa); err != nil {
		return nil, eris.Wrap(err, "cache: unmarshal weights")
	}
	if len(wa.Weights) == 0 {
		return nil, eris.New("cache: empty weights artifact")
	}
	return &Snapshot{
		Weights:  wa.Weights,
		Scaler:   doc.Scaler,
		Metadata: doc.Metadata,
	}, nil
}
