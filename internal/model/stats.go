package model

// GroupStat is one row of a statistic table: a group key, how many
// records fell into the group, and the rounded mean salary.
type GroupStat struct {
	Key       string `json:"key"`
	Count     int    `json:"count"`
	AvgSalary int    `json:"avg_salary"`
}

// StatTables holds the seven per-dimension salary breakdowns consumed
// by the presentation layer. Each table is sorted by descending mean
// salary.
type StatTables struct {
	ByExperience     []GroupStat `json:"by_experience"`
	ByLocation       []GroupStat `json:"by_location"`
	ByYear           []GroupStat `json:"by_year"`
	ByCompanySize    []GroupStat `json:"by_company_size"`
	ByJobTitle       []GroupStat `json:"by_job_title"`
	ByRemoteRatio    []GroupStat `json:"by_remote_ratio"`
	ByEmploymentType []GroupStat `json:"by_employment_type"`
}
