package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/filter"
)

// MockPharmacyRepository is a testify mock of repositories.PharmacyRepository
type MockPharmacyRepository struct {
	mock.Mock
}

func (m *MockPharmacyRepository) ListFeatures(ctx context.Context, q filter.Compiled) ([]*entities.Pharmacy, error) {
	args := m.Called(ctx, q)
	rows, _ := args.Get(0).([]*entities.Pharmacy)
	return rows, args.Error(1)
}

func (m *MockPharmacyRepository) HeatSamples(ctx context.Context, q filter.Compiled) ([]*entities.Pharmacy, error) {
	args := m.Called(ctx, q)
	rows, _ := args.Get(0).([]*entities.Pharmacy)
	return rows, args.Error(1)
}

func (m *MockPharmacyRepository) StatusBuckets(ctx context.Context, level entities.GroupLevel, q filter.Compiled) ([]entities.StatusBucket, error) {
	args := m.Called(ctx, level, q)
	buckets, _ := args.Get(0).([]entities.StatusBucket)
	return buckets, args.Error(1)
}

func (m *MockPharmacyRepository) Provinces(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	provinces, _ := args.Get(0).([]string)
	return provinces, args.Error(1)
}

func (m *MockPharmacyRepository) AdminList(ctx context.Context, q filter.Compiled) ([]*entities.Pharmacy, int64, error) {
	args := m.Called(ctx, q)
	rows, _ := args.Get(0).([]*entities.Pharmacy)
	return rows, args.Get(1).(int64), args.Error(2)
}

func str(s string) *string   { return &s }
func num(f float64) *float64 { return &f }

func at(lat, lon float64) *entities.Location {
	return &entities.Location{Latitude: lat, Longitude: lon}
}
