package proximity

import (
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/utils"
)

// Search returns the features whose name or address contains keyword, ignoring case.
// A blank keyword matches nothing.
func Search(features []*geojson.Feature, keyword string) []*geojson.Feature {
	needle := utils.Fold(utils.CleanText(keyword))
	matches := make([]*geojson.Feature, 0)
	if needle == "" {
		return matches
	}

	for _, f := range features {
		if f == nil {
			continue
		}
		if containsFold(f.Properties, "name", needle) || containsFold(f.Properties, "address", needle) {
			matches = append(matches, f)
		}
	}
	return matches
}

// AutoSelect returns the only feature matching keyword, if exactly one does
func AutoSelect(features []*geojson.Feature, keyword string) (*geojson.Feature, bool) {
	matches := Search(features, keyword)
	if len(matches) != 1 {
		return nil, false
	}
	return matches[0], true
}

func containsFold(props geojson.Properties, key, needle string) bool {
	v, ok := props[key].(string)
	if !ok {
		return false
	}
	return strings.Contains(utils.Fold(v), needle)
}
