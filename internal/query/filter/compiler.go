package filter

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/utils"
)

// Purpose selects cap bounds and the extra predicates a query class needs
type Purpose string

const (
	PurposeFeatures Purpose = "features"
	PurposeHeatmap  Purpose = "heatmap"
	PurposeAdmin    Purpose = "admin"
)

// Field names a filterable attribute of a pharmacy record
type Field string

const (
	FieldProvince Field = "province"
	FieldDistrict Field = "district"
	FieldStatus   Field = "status"
	FieldRating   Field = "rating"
	FieldLocation Field = "geom"
	FieldName     Field = "name"
	FieldImage    Field = "image"
)

// Operator is the comparison a predicate applies
type Operator string

const (
	OpContainsFold   Operator = "contains_fold"
	OpEqual          Operator = "eq"
	OpGreaterOrEqual Operator = "gte"
	OpWithinBBox     Operator = "within_bbox"
	OpNotNull        Operator = "not_null"
	OpValidImage     Operator = "valid_image"
)

// Predicate is one typed condition. Values are bound as query parameters, never spliced into SQL.
type Predicate struct {
	Field    Field       `json:"field"`
	Operator Operator    `json:"op"`
	Value    interface{} `json:"value,omitempty"`
}

// BBox is a closed lon/lat rectangle
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Bound converts the box to an orb.Bound
func (b BBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// Contains reports whether the point lies inside or on the edge of the box
func (b BBox) Contains(lat, lon float64) bool {
	return b.Bound().Contains(orb.Point{lon, lat})
}

// Warning records a filter component that was dropped instead of rejecting the query
type Warning struct {
	Component string `json:"component"`
	Reason    string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Component, w.Reason)
}

// Compiled is the executable form of a Criteria value
type Compiled struct {
	Purpose    Purpose     `json:"purpose"`
	Predicates []Predicate `json:"predicates"`
	Cap        int         `json:"cap"`
	Page       int         `json:"page,omitempty"`
	Offset     int         `json:"offset,omitempty"`
	Warnings   []Warning   `json:"-"`
}

// CacheKey is a stable digest of everything that affects the result set
func (c Compiled) CacheKey() string {
	data, _ := json.Marshal(c)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

// Limits bound the result size per purpose
type Limits struct {
	FeatureDefault  int
	FeatureMax      int
	HeatDefault     int
	HeatMax         int
	AdminPageSize   int
	AdminMaxPerPage int
}

// DefaultLimits returns the stock bounds
func DefaultLimits() Limits {
	return Limits{
		FeatureDefault:  2000,
		FeatureMax:      2000,
		HeatDefault:     20000,
		HeatMax:         50000,
		AdminPageSize:   20,
		AdminMaxPerPage: 200,
	}
}

// Compiler turns Criteria into predicates plus a bounded cap
type Compiler struct {
	limits Limits
}

// NewCompiler creates a compiler with the given bounds
func NewCompiler(limits Limits) *Compiler {
	return &Compiler{limits: limits}
}

// Compile builds the conjunctive predicate list for c. Absent fields add nothing;
// malformed rating or bbox components are dropped and reported in Warnings.
func (cp *Compiler) Compile(c Criteria, purpose Purpose) Compiled {
	out := Compiled{Purpose: purpose}

	if v := utils.StripAdminPrefix(c.Province); v != "" {
		out.Predicates = append(out.Predicates, Predicate{FieldProvince, OpContainsFold, v})
	}
	if v := utils.StripAdminPrefix(c.District); v != "" {
		out.Predicates = append(out.Predicates, Predicate{FieldDistrict, OpContainsFold, v})
	}
	if c.Status != "" {
		out.Predicates = append(out.Predicates, Predicate{FieldStatus, OpEqual, c.Status})
	}

	if c.RatingMin != nil {
		if r := *c.RatingMin; isFinite(r) {
			out.Predicates = append(out.Predicates, Predicate{FieldRating, OpGreaterOrEqual, r})
		} else {
			out.Warnings = append(out.Warnings, Warning{"rating_min", "not a number"})
		}
	}

	if c.BoundingBox != nil {
		if box, reason := parseBBox(c.BoundingBox); reason == "" {
			out.Predicates = append(out.Predicates, Predicate{FieldLocation, OpWithinBBox, box})
		} else {
			out.Warnings = append(out.Warnings, Warning{"bbox", reason})
		}
	}

	switch purpose {
	case PurposeHeatmap:
		out.Predicates = append(out.Predicates, Predicate{Field: FieldLocation, Operator: OpNotNull})
		out.Cap = clampOrDefault(c.Limit, cp.limits.HeatDefault, cp.limits.HeatMax)
	case PurposeAdmin:
		if v := utils.CleanText(c.Search); v != "" {
			out.Predicates = append(out.Predicates, Predicate{FieldName, OpContainsFold, v})
		}
		if c.RequireValidImage {
			out.Predicates = append(out.Predicates, Predicate{Field: FieldImage, Operator: OpValidImage})
		}
		size := c.PageSize
		if size <= 0 {
			size = cp.limits.AdminPageSize
		}
		out.Cap = clamp(size, 1, cp.limits.AdminMaxPerPage)
		out.Page = c.Page
		if out.Page < 1 {
			out.Page = 1
		}
		out.Offset = (out.Page - 1) * out.Cap
	default:
		out.Cap = clampOrDefault(c.Limit, cp.limits.FeatureDefault, cp.limits.FeatureMax)
	}

	return out
}

func parseBBox(parts []float64) (BBox, string) {
	if len(parts) != 4 {
		return BBox{}, fmt.Sprintf("expected 4 components, got %d", len(parts))
	}
	for _, p := range parts {
		if !isFinite(p) {
			return BBox{}, "non-numeric component"
		}
	}
	box := BBox{MinLon: parts[0], MinLat: parts[1], MaxLon: parts[2], MaxLat: parts[3]}
	if box.MinLon > box.MaxLon {
		box.MinLon, box.MaxLon = box.MaxLon, box.MinLon
	}
	if box.MinLat > box.MaxLat {
		box.MinLat, box.MaxLat = box.MaxLat, box.MinLat
	}
	return box, ""
}

func clampOrDefault(v *int, def, max int) int {
	if v == nil {
		return clamp(def, 1, max)
	}
	return clamp(*v, 1, max)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
