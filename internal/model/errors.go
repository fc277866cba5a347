package model

import "github.com/rotisserie/eris"

// Error taxonomy for the pipeline. Ingestion errors are fatal to
// startup; training and prediction errors are recoverable; cache
// corruption is self-healed and never surfaced.
var (
	// ErrEmptyDataset means the dataset input was blank.
	ErrEmptyDataset = eris.New("dataset is empty")

	// ErrInsufficientData means too few valid records remained after
	// filtering for downstream components to be meaningful.
	ErrInsufficientData = eris.New("insufficient valid records")

	// ErrCacheCorrupt marks an unparsable or malformed cache entry. The
	// cache deletes the entry and reports absent; this error never
	// reaches prediction callers.
	ErrCacheCorrupt = eris.New("cache entry corrupt")

	// ErrTraining wraps any numeric or training fault.
	ErrTraining = eris.New("training failed")

	// ErrPrediction wraps any numeric fault during inference. It is
	// local to one prediction attempt and does not invalidate the
	// loaded model.
	ErrPrediction = eris.New("prediction failed")
)
