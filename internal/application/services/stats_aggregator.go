package services

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/utils"
)

// DefaultStatsLimit caps how many groups a rollup returns; larger limits are clamped to it
const DefaultStatsLimit = 30

// StatusClass is the canonical open/closed reading of a free-text status
type StatusClass int

const (
	StatusUnknown StatusClass = iota
	StatusOpen
	StatusClosed
)

func (c StatusClass) String() string {
	switch c {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	openStatuses = map[string]struct{}{
		"open": {}, "active": {}, "hoạt động": {}, "đang hoạt động": {}, "mở cửa": {}, "đang mở cửa": {},
	}
	closedStatuses = map[string]struct{}{
		"closed": {}, "inactive": {}, "ngừng hoạt động": {}, "đóng cửa": {}, "đã đóng cửa": {},
	}
)

// ClassifyStatus reads a scraped status. A known phrase or a leading "open"/"closed" word decides;
// anything else, including an empty status, is unknown.
func ClassifyStatus(status string) StatusClass {
	s := utils.LowerVI(utils.CleanText(status))
	if s == "" {
		return StatusUnknown
	}
	if _, ok := openStatuses[s]; ok {
		return StatusOpen
	}
	if _, ok := closedStatuses[s]; ok {
		return StatusClosed
	}

	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return StatusUnknown
	}
	switch words[0] {
	case "open":
		return StatusOpen
	case "closed":
		return StatusClosed
	}
	return StatusUnknown
}

type statsAccumulator struct {
	total, rated, open, closed int64
	ratingSum                  float64
}

// AggregateStats folds status buckets into one row per group, ordered by total descending
// then key ascending, and keeps at most limit rows (never more than DefaultStatsLimit).
func AggregateStats(level entities.GroupLevel, buckets []entities.StatusBucket, limit int) []entities.StatsRow {
	if limit <= 0 || limit > DefaultStatsLimit {
		limit = DefaultStatsLimit
	}

	groups := make(map[string]*statsAccumulator)
	for _, b := range buckets {
		acc, ok := groups[b.GroupKey]
		if !ok {
			acc = &statsAccumulator{}
			groups[b.GroupKey] = acc
		}
		acc.total += b.Total
		acc.rated += b.Rated
		if b.RatingSum != nil {
			acc.ratingSum += *b.RatingSum
		}

		var status string
		if b.Status != nil {
			status = *b.Status
		}
		switch ClassifyStatus(status) {
		case StatusOpen:
			acc.open += b.Total
		case StatusClosed:
			acc.closed += b.Total
		}
	}

	rows := make([]entities.StatsRow, 0, len(groups))
	for key, acc := range groups {
		row := entities.StatsRow{
			Level:       level,
			GroupKey:    key,
			Total:       acc.total,
			OpenCount:   acc.open,
			ClosedCount: acc.closed,
		}
		if acc.rated > 0 {
			avg := round2(acc.ratingSum / float64(acc.rated))
			row.AvgRating = &avg
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].GroupKey < rows[j].GroupKey
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// round2 rounds half away from zero on the 15-significant-digit decimal form of v,
// the same value Postgres rounds after a double precision to numeric cast.
func round2(v float64) float64 {
	scaled, err := strconv.ParseFloat(strconv.FormatFloat(v*100, 'g', 15, 64), 64)
	if err != nil {
		scaled = v * 100
	}
	return math.Round(scaled) / 100
}
