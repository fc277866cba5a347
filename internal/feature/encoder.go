// Package feature turns cleaned records into the fixed-width numeric
// vectors the model consumes, and owns the standardization parameters
// fitted over the training set.
package feature

import (
	"sort"

	"github.com/salarylens/salarylens/internal/model"
)

// BuildVocabulary returns the top-N job titles by frequency, ties
// broken by first-encounter order. The vocabulary is the single source
// of truth for title encoding at both training and inference time.
func BuildVocabulary(records []model.JobRecord) model.Vocabulary {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i, r := range records {
		if _, ok := counts[r.JobTitle]; !ok {
			first[r.JobTitle] = i
		}
		counts[r.JobTitle]++
	}

	titles := make([]string, 0, len(counts))
	for t := range counts {
		titles = append(titles, t)
	}
	sort.SliceStable(titles, func(i, j int) bool {
		if counts[titles[i]] != counts[titles[j]] {
			return counts[titles[i]] > counts[titles[j]]
		}
		return first[titles[i]] < first[titles[j]]
	})

	if len(titles) > model.VocabularySize {
		titles = titles[:model.VocabularySize]
	}
	return model.Vocabulary(titles)
}

// Encode maps one record to its feature vector:
//
//	[work_year-2020, exp index, emp index, size index, remote/100, title index]
//
// Unseen categorical values encode as model.UnknownIndex. Encoding is a
// pure function of the record and the vocabulary.
func Encode(r model.JobRecord, vocab model.Vocabulary) []float64 {
	return []float64{
		float64(r.WorkYear - model.MinWorkYear),
		float64(model.ExperienceIndex(r.ExperienceLevel)),
		float64(model.EmploymentIndex(r.EmploymentType)),
		float64(model.CompanySizeIndex(r.CompanySize)),
		float64(r.RemoteRatio) / 100,
		float64(vocab.Index(r.JobTitle)),
	}
}

// EncodeAll emits one feature vector and one target per record,
// preserving record order so features[i] corresponds to targets[i].
func EncodeAll(records []model.JobRecord, vocab model.Vocabulary) ([][]float64, []float64) {
	features := make([][]float64, len(records))
	targets := make([]float64, len(records))
	for i, r := range records {
		features[i] = Encode(r, vocab)
		targets[i] = r.SalaryUSD
	}
	return features, targets
}
