package model

// FeatureCount is the width of every feature vector.
const FeatureCount = 6

// VocabularySize is the number of job titles kept in the encoding
// vocabulary (top N by frequency).
const VocabularySize = 20

// FeatureNames lists the feature columns in encoding order.
var FeatureNames = []string{
	"work_year",
	"experience_level",
	"employment_type",
	"company_size",
	"remote_ratio",
	"job_title",
}

// Vocabulary is the ordered list of the most frequent job titles in the
// training set. Position in the list is the title's encoding, so a
// vocabulary and any model trained against it are versioned together.
type Vocabulary []string

// Index returns the encoding of a title, or UnknownIndex when the title
// is not in the vocabulary.
func (v Vocabulary) Index(title string) int { return indexOf(v, title) }

// Title is the inverse of Index. Returns "" for an out-of-range index.
func (v Vocabulary) Title(i int) string { return at(v, i) }
