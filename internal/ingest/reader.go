// Package ingest parses the raw salary dataset into typed records,
// dropping rows that fail validation.
package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/salarylens/salarylens/internal/model"
)

// MinRecords is the smallest valid dataset the pipeline will accept.
// Below this, neither statistics nor features are meaningful.
const MinRecords = 10

// Columns the parser consumes. The dataset carries more (salary,
// salary_currency, employee_residence); those are ignored.
var requiredColumns = []string{
	"work_year",
	"experience_level",
	"employment_type",
	"job_title",
	"salary_in_usd",
	"remote_ratio",
	"company_location",
	"company_size",
}

// Parse reads a delimited dataset and returns its valid records in file
// order. Returns model.ErrEmptyDataset for blank input and
// model.ErrInsufficientData when fewer than MinRecords valid rows
// remain after filtering.
func Parse(r io.Reader) ([]model.JobRecord, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.Wrap(model.ErrEmptyDataset, "ingest: no header row")
	}
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read header")
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var (
		records []model.JobRecord
		total   int
		dropped int
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read row")
		}
		total++

		rec := recordFromRow(row, cols)
		if !rec.Valid() {
			dropped++
			continue
		}
		records = append(records, rec)
	}

	if total == 0 {
		return nil, eris.Wrap(model.ErrEmptyDataset, "ingest: no data rows")
	}
	if len(records) < MinRecords {
		return nil, eris.Wrapf(model.ErrInsufficientData,
			"ingest: %d valid records, need at least %d", len(records), MinRecords)
	}

	zap.L().Debug("ingest: dataset parsed",
		zap.Int("total", total),
		zap.Int("valid", len(records)),
		zap.Int("dropped", dropped),
	)
	return records, nil
}

// ParseFile opens and parses a dataset file.
func ParseFile(path string) ([]model.JobRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()
	return Parse(f)
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, eris.Errorf("ingest: missing column %q", name)
		}
	}
	return cols, nil
}

func recordFromRow(row []string, cols map[string]int) model.JobRecord {
	return model.JobRecord{
		WorkYear:        safeInt(field(row, cols, "work_year")),
		ExperienceLevel: field(row, cols, "experience_level"),
		EmploymentType:  field(row, cols, "employment_type"),
		JobTitle:        field(row, cols, "job_title"),
		SalaryUSD:       safeFloat(field(row, cols, "salary_in_usd")),
		CompanyLocation: field(row, cols, "company_location"),
		CompanySize:     field(row, cols, "company_size"),
		RemoteRatio:     safeInt(field(row, cols, "remote_ratio")),
	}
}

func field(row []string, cols map[string]int, name string) string {
	i := cols[name]
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// safeInt parses an integer, defaulting to 0 on failure.
func safeInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// safeFloat parses a number, defaulting to 0 on failure.
func safeFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
