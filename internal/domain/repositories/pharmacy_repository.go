package repositories

import (
	"context"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/filter"
)

// PharmacyRepository is the read side of the point store.
// Every method either returns the full result or an error, never a partial slice.
type PharmacyRepository interface {
	// ListFeatures returns rows ordered by rating (nulls last) then id, capped at q.Cap
	ListFeatures(ctx context.Context, q filter.Compiled) ([]*entities.Pharmacy, error)

	// HeatSamples returns located rows in no particular order
	HeatSamples(ctx context.Context, q filter.Compiled) ([]*entities.Pharmacy, error)

	// StatusBuckets returns per (group, status) partial aggregates for the rollup
	StatusBuckets(ctx context.Context, level entities.GroupLevel, q filter.Compiled) ([]entities.StatusBucket, error)

	// Provinces returns distinct non-null province names in alphabetical order
	Provinces(ctx context.Context) ([]string, error)

	// AdminList returns one page ordered by id and the total match count
	AdminList(ctx context.Context, q filter.Compiled) ([]*entities.Pharmacy, int64, error)
}
