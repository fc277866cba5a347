// Package stats groups valid records along the dataset's categorical
// and numeric dimensions and computes per-group salary summaries.
package stats

import (
	"math"
	"sort"
	"strconv"

	"github.com/salarylens/salarylens/internal/model"
)

// KeyFunc extracts a grouping key from a record.
type KeyFunc func(model.JobRecord) string

// GroupBy buckets records by key and returns one row per group with the
// record count and the rounded mean salary, sorted by descending mean.
// Ties keep first-encountered order.
func GroupBy(records []model.JobRecord, key KeyFunc) []model.GroupStat {
	type agg struct {
		count int
		sum   float64
	}
	groups := make(map[string]*agg)
	var order []string

	for _, r := range records {
		k := key(r)
		g, ok := groups[k]
		if !ok {
			g = &agg{}
			groups[k] = g
			order = append(order, k)
		}
		g.count++
		g.sum += r.SalaryUSD
	}

	out := make([]model.GroupStat, 0, len(order))
	for _, k := range order {
		g := groups[k]
		out = append(out, model.GroupStat{
			Key:       k,
			Count:     g.count,
			AvgSalary: int(math.Round(g.sum / float64(g.count))),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AvgSalary > out[j].AvgSalary
	})
	return out
}

// Canned grouping keys, one per statistic table.
var (
	ByExperience     KeyFunc = func(r model.JobRecord) string { return r.ExperienceLevel }
	ByLocation       KeyFunc = func(r model.JobRecord) string { return r.CompanyLocation }
	ByYear           KeyFunc = func(r model.JobRecord) string { return strconv.Itoa(r.WorkYear) }
	ByCompanySize    KeyFunc = func(r model.JobRecord) string { return r.CompanySize }
	ByJobTitle       KeyFunc = func(r model.JobRecord) string { return r.JobTitle }
	ByRemoteRatio    KeyFunc = func(r model.JobRecord) string { return strconv.Itoa(r.RemoteRatio) }
	ByEmploymentType KeyFunc = func(r model.JobRecord) string { return r.EmploymentType }
)

// Tables computes all seven statistic tables.
func Tables(records []model.JobRecord) model.StatTables {
	return model.StatTables{
		ByExperience:     GroupBy(records, ByExperience),
		ByLocation:       GroupBy(records, ByLocation),
		ByYear:           GroupBy(records, ByYear),
		ByCompanySize:    GroupBy(records, ByCompanySize),
		ByJobTitle:       GroupBy(records, ByJobTitle),
		ByRemoteRatio:    GroupBy(records, ByRemoteRatio),
		ByEmploymentType: GroupBy(records, ByEmploymentType),
	}
}
