package filter

import (
	"strings"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/utils"
)

// Match evaluates the predicates against an in-memory record with the same
// semantics the SQL executor applies. It ignores Cap.
func (c Compiled) Match(p *entities.Pharmacy) bool {
	for _, pred := range c.Predicates {
		if !pred.Match(p) {
			return false
		}
	}
	return true
}

// Match evaluates a single predicate against p
func (pred Predicate) Match(p *entities.Pharmacy) bool {
	switch pred.Operator {
	case OpContainsFold:
		stored := textField(p, pred.Field)
		needle, _ := pred.Value.(string)
		return stored != nil && strings.Contains(utils.Fold(*stored), utils.Fold(needle))
	case OpEqual:
		stored := textField(p, pred.Field)
		want, _ := pred.Value.(string)
		return stored != nil && *stored == want
	case OpGreaterOrEqual:
		min, _ := pred.Value.(float64)
		return p.Rating != nil && *p.Rating >= min
	case OpWithinBBox:
		box, ok := pred.Value.(BBox)
		return ok && p.Location != nil && box.Contains(p.Location.Latitude, p.Location.Longitude)
	case OpNotNull:
		return p.Location != nil
	case OpValidImage:
		return utils.IsValidImagePtr(p.Image)
	default:
		return false
	}
}

func textField(p *entities.Pharmacy, f Field) *string {
	switch f {
	case FieldProvince:
		return p.Province
	case FieldDistrict:
		return p.District
	case FieldStatus:
		return p.Status
	case FieldName:
		return p.Name
	case FieldImage:
		return p.Image
	default:
		return nil
	}
}
