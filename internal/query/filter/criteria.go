package filter

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Criteria is the sparse filter input of a single query. Every field is optional.
type Criteria struct {
	Province  string
	District  string
	Status    string
	RatingMin *float64
	// BoundingBox holds the raw components as supplied (minLon, minLat, maxLon, maxLat).
	// Non-numeric components are NaN; validation happens in Compile.
	BoundingBox []float64
	Limit       *int

	// Admin listing only
	Search            string
	RequireValidImage bool
	Page              int
	PageSize          int
}

// ParseCriteria reads criteria from query parameters. It never fails: malformed
// components are carried through so Compile can drop them with a warning.
func ParseCriteria(values url.Values) Criteria {
	c := Criteria{
		Province: strings.TrimSpace(values.Get("province")),
		District: strings.TrimSpace(values.Get("district")),
		// status is compared exactly, so it is passed through untouched
		Status:   values.Get("status"),
		Search:   strings.TrimSpace(values.Get("search")),
	}

	if raw := strings.TrimSpace(values.Get("rating_min")); raw != "" {
		c.RatingMin = parseFloatOrNaN(raw)
	}

	if raw := strings.TrimSpace(values.Get("bbox")); raw != "" {
		parts := strings.Split(raw, ",")
		c.BoundingBox = make([]float64, len(parts))
		for i, part := range parts {
			c.BoundingBox[i] = *parseFloatOrNaN(strings.TrimSpace(part))
		}
	}

	if n, ok := parseInt(values.Get("limit")); ok {
		c.Limit = &n
	}

	switch strings.ToLower(strings.TrimSpace(values.Get("hasImage"))) {
	case "1", "true", "yes":
		c.RequireValidImage = true
	}
	if n, ok := parseInt(values.Get("page")); ok {
		c.Page = n
	}
	if n, ok := parseInt(values.Get("perPage")); ok {
		c.PageSize = n
	}

	return c
}

// Values encodes the criteria back into query parameters
func (c Criteria) Values() url.Values {
	v := url.Values{}
	setIf := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setIf("province", c.Province)
	setIf("district", c.District)
	setIf("status", c.Status)
	setIf("search", c.Search)
	if c.RatingMin != nil {
		v.Set("rating_min", strconv.FormatFloat(*c.RatingMin, 'f', -1, 64))
	}
	if len(c.BoundingBox) > 0 {
		parts := make([]string, len(c.BoundingBox))
		for i, f := range c.BoundingBox {
			parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
		}
		v.Set("bbox", strings.Join(parts, ","))
	}
	if c.Limit != nil {
		v.Set("limit", strconv.Itoa(*c.Limit))
	}
	if c.RequireValidImage {
		v.Set("hasImage", "1")
	}
	if c.Page > 0 {
		v.Set("page", strconv.Itoa(c.Page))
	}
	if c.PageSize > 0 {
		v.Set("perPage", strconv.Itoa(c.PageSize))
	}
	return v
}

func parseFloatOrNaN(raw string) *float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		f = math.NaN()
	}
	return &f
}

func parseInt(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
