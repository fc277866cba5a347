package model

import "time"

// Version is the model format version expected by the current code. A
// cached snapshot carrying any other version is discarded and retrained.
const Version = "1.0.0"

// Metadata records the provenance of a trained model. JSON keys follow
// the persisted cache document format, which the bundled artifact also
// uses; changing them invalidates every existing artifact.
type Metadata struct {
	Version      string     `json:"version"`
	TrainedAt    time.Time  `json:"trainedAt"`
	DataSize     int        `json:"dataSize"`
	Features     []string   `json:"features"`
	TopJobTitles Vocabulary `json:"topJobTitles"`
	RunID        string     `json:"runId,omitempty"`
}
