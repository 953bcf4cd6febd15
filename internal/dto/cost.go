package dto

// CostMonth is one row of the yearly cost overview. Difference is
// actual minus estimated and may be negative.
type CostMonth struct {
	Month      int     `json:"month"`
	Estimated  float64 `json:"estimated"`
	Actual     float64 `json:"actual"`
	Count      int     `json:"count"`
	Difference float64 `json:"difference"`
}

// CostOverview is the twelve-bucket yearly spend table plus totals.
type CostOverview struct {
	Year            int         `json:"year"`
	Months          []CostMonth `json:"months"`
	TotalEstimated  float64     `json:"total_estimated"`
	TotalActual     float64     `json:"total_actual"`
	TotalCount      int         `json:"total_count"`
	TotalDifference float64     `json:"total_difference"`
}
