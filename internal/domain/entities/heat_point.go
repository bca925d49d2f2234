package entities

// HeatPoint is a weighted sample for density rendering. Weight is always positive.
type HeatPoint struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Weight float64 `json:"w"`
}
