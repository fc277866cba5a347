// Package model defines the domain types shared across the salary
// pipeline: dataset records, categorical index maps, feature metadata,
// statistic rows, predictions, and the error taxonomy.
package model

// UnknownIndex is the sentinel encoding for a categorical value that is
// absent from its lookup list. It is a valid model input, not an error:
// the network still produces an output, just from out-of-distribution
// input.
const UnknownIndex = -1

// MinWorkYear is the earliest work year accepted as valid.
const MinWorkYear = 2020

// JobRecord is one cleaned dataset row.
type JobRecord struct {
	WorkYear        int     `json:"work_year"`
	ExperienceLevel string  `json:"experience_level"`
	EmploymentType  string  `json:"employment_type"`
	JobTitle        string  `json:"job_title"`
	SalaryUSD       float64 `json:"salary_in_usd"`
	CompanyLocation string  `json:"company_location"`
	CompanySize     string  `json:"company_size"`
	RemoteRatio     int     `json:"remote_ratio"`
}

// Valid reports whether the record may enter the pipeline: positive
// salary, work year in range, and every categorical field present.
func (r JobRecord) Valid() bool {
	return r.SalaryUSD > 0 &&
		r.WorkYear >= MinWorkYear &&
		r.ExperienceLevel != "" &&
		r.EmploymentType != "" &&
		r.JobTitle != "" &&
		r.CompanySize != ""
}

// Ordered categorical lookup lists. Position in the list IS the
// encoding, so the order is load-bearing and must never change between
// training and inference.
var (
	ExperienceLevels = []string{"EN", "MI", "SE", "EX"}
	EmploymentTypes  = []string{"FT", "PT", "CT", "FL"}
	CompanySizes     = []string{"S", "M", "L"}
)

// ExperienceIndex maps an experience level to its encoding, or
// UnknownIndex when unseen.
func ExperienceIndex(level string) int { return indexOf(ExperienceLevels, level) }

// EmploymentIndex maps an employment type to its encoding, or
// UnknownIndex when unseen.
func EmploymentIndex(typ string) int { return indexOf(EmploymentTypes, typ) }

// CompanySizeIndex maps a company size to its encoding, or UnknownIndex
// when unseen.
func CompanySizeIndex(size string) int { return indexOf(CompanySizes, size) }

// ExperienceAt is the inverse of ExperienceIndex. Returns "" for an
// out-of-range index.
func ExperienceAt(i int) string { return at(ExperienceLevels, i) }

// EmploymentAt is the inverse of EmploymentIndex.
func EmploymentAt(i int) string { return at(EmploymentTypes, i) }

// CompanySizeAt is the inverse of CompanySizeIndex.
func CompanySizeAt(i int) string { return at(CompanySizes, i) }

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return UnknownIndex
}

func at(list []string, i int) string {
	if i < 0 || i >= len(list) {
		return ""
	}
	return list[i]
}
