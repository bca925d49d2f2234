package services

import (
	"context"

	"github.com/paulmach/orb/geojson"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/repositories"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/observability"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/filter"
	apperrors "github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/errors"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/utils"
)

// PharmacyService answers the map read queries: compile, execute, shape
type PharmacyService struct {
	repo       repositories.PharmacyRepository
	compiler   *filter.Compiler
	statsLimit int
	metrics    *observability.Metrics
}

// NewPharmacyService creates a new pharmacy service
func NewPharmacyService(
	repo repositories.PharmacyRepository,
	compiler *filter.Compiler,
	statsLimit int,
	metrics *observability.Metrics,
) *PharmacyService {
	if statsLimit <= 0 {
		statsLimit = DefaultStatsLimit
	}
	return &PharmacyService{
		repo:       repo,
		compiler:   compiler,
		statsLimit: statsLimit,
		metrics:    metrics,
	}
}

// FeatureCollection returns the filtered pharmacies as GeoJSON
func (s *PharmacyService) FeatureCollection(ctx context.Context, c filter.Criteria) (*geojson.FeatureCollection, error) {
	q := s.compile(ctx, c, filter.PurposeFeatures)

	rows, err := s.repo.ListFeatures(ctx, q)
	if err != nil {
		return nil, err
	}
	return AssembleFeatureCollection(rows), nil
}

// HeatPoints returns weighted samples for the density layer
func (s *PharmacyService) HeatPoints(ctx context.Context, c filter.Criteria) ([]entities.HeatPoint, error) {
	q := s.compile(ctx, c, filter.PurposeHeatmap)

	rows, err := s.repo.HeatSamples(ctx, q)
	if err != nil {
		return nil, err
	}
	return BuildHeatPoints(rows), nil
}

// ProvinceStats rolls up every province
func (s *PharmacyService) ProvinceStats(ctx context.Context) ([]entities.StatsRow, error) {
	q := s.compile(ctx, filter.Criteria{}, filter.PurposeFeatures)

	buckets, err := s.repo.StatusBuckets(ctx, entities.GroupByProvince, q)
	if err != nil {
		return nil, err
	}
	return AggregateStats(entities.GroupByProvince, buckets, s.statsLimit), nil
}

// DistrictStats rolls up the districts of provinces whose name contains province
func (s *PharmacyService) DistrictStats(ctx context.Context, province string) ([]entities.StatsRow, error) {
	if utils.CleanText(province) == "" {
		return nil, apperrors.NewValidationError(apperrors.CodeMissingProvince, "province is required")
	}

	q := s.compile(ctx, filter.Criteria{Province: province}, filter.PurposeFeatures)

	buckets, err := s.repo.StatusBuckets(ctx, entities.GroupByDistrict, q)
	if err != nil {
		return nil, err
	}
	return AggregateStats(entities.GroupByDistrict, buckets, s.statsLimit), nil
}

// Provinces lists distinct province names
func (s *PharmacyService) Provinces(ctx context.Context) ([]string, error) {
	provinces, err := s.repo.Provinces(ctx)
	if err != nil {
		return nil, err
	}
	if provinces == nil {
		provinces = []string{}
	}
	return provinces, nil
}

// AdminList returns one page of the administrative listing
func (s *PharmacyService) AdminList(ctx context.Context, c filter.Criteria) (*entities.PharmacyPage, error) {
	q := s.compile(ctx, c, filter.PurposeAdmin)

	rows, total, err := s.repo.AdminList(ctx, q)
	if err != nil {
		return nil, err
	}
	return entities.NewPharmacyPage(rows, total, q.Page, q.Cap), nil
}

func (s *PharmacyService) compile(ctx context.Context, c filter.Criteria, purpose filter.Purpose) filter.Compiled {
	q := s.compiler.Compile(c, purpose)
	for _, w := range q.Warnings {
		observability.LoggerFromContext(ctx).Warn().
			Str("component", w.Component).
			Str("reason", w.Reason).
			Str("purpose", string(purpose)).
			Msg("dropped malformed filter component")
		observability.RecordFilterWarning(ctx, s.metrics, w.Component)
	}
	return q
}
