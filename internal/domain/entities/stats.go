package entities

import "encoding/json"

// GroupLevel selects the administrative level a rollup is keyed by
type GroupLevel string

const (
	GroupByProvince GroupLevel = "province"
	GroupByDistrict GroupLevel = "district"
)

// StatusBucket is a partial aggregate for one (group, raw status) pair
type StatusBucket struct {
	GroupKey  string   `db:"group_key"`
	Status    *string  `db:"status"`
	Total     int64    `db:"total"`
	Rated     int64    `db:"rated"`
	RatingSum *float64 `db:"rating_sum"`
}

// StatsRow is the rollup for one province or district
type StatsRow struct {
	Level       GroupLevel
	GroupKey    string
	Total       int64
	AvgRating   *float64
	OpenCount   int64
	ClosedCount int64
}

// MarshalJSON keys the group name by its level ("province" or "district")
func (r StatsRow) MarshalJSON() ([]byte, error) {
	level := r.Level
	if level == "" {
		level = GroupByProvince
	}
	return json.Marshal(map[string]interface{}{
		string(level):  r.GroupKey,
		"total":        r.Total,
		"avg_rating":   r.AvgRating,
		"open_count":   r.OpenCount,
		"closed_count": r.ClosedCount,
	})
}

// UnmarshalJSON accepts either key form
func (r *StatsRow) UnmarshalJSON(data []byte) error {
	var raw struct {
		Province    *string  `json:"province"`
		District    *string  `json:"district"`
		Total       int64    `json:"total"`
		AvgRating   *float64 `json:"avg_rating"`
		OpenCount   int64    `json:"open_count"`
		ClosedCount int64    `json:"closed_count"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = StatsRow{
		Total:       raw.Total,
		AvgRating:   raw.AvgRating,
		OpenCount:   raw.OpenCount,
		ClosedCount: raw.ClosedCount,
	}
	switch {
	case raw.District != nil:
		r.Level, r.GroupKey = GroupByDistrict, *raw.District
	case raw.Province != nil:
		r.Level, r.GroupKey = GroupByProvince, *raw.Province
	}
	return nil
}
