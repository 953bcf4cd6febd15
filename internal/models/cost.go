package models

// CostBucket is one month of aggregated request spend. Month is 1-12.
type CostBucket struct {
	Year      int     `db:"year" json:"year"`
	Month     int     `db:"month" json:"month"`
	Estimated float64 `db:"estimated" json:"estimated"`
	Actual    float64 `db:"actual" json:"actual"`
	Count     int     `db:"count" json:"count"`
}
