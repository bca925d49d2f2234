package location_test

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/oschwald/geoip2-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/adapters/providers/location"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/providers"
)

// MockCityReader is a mock implementation of location.CityReader
type MockCityReader struct {
	mock.Mock
}

func (m *MockCityReader) City(ip net.IP) (*geoip2.City, error) {
	args := m.Called(ip.String())
	record, _ := args.Get(0).(*geoip2.City)
	return record, args.Error(1)
}

func cityAt(lat, lon float64) *geoip2.City {
	record := &geoip2.City{}
	record.Location.Latitude = lat
	record.Location.Longitude = lon
	record.Location.AccuracyRadius = 20
	return record
}

func TestStaticProvider(t *testing.T) {
	p := location.NewStaticProvider(21.03, 105.85)

	loc, err := p.CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.Location{Latitude: 21.03, Longitude: 105.85}, loc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.CurrentLocation(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeoIPProvider_Resolves(t *testing.T) {
	reader := new(MockCityReader)
	reader.On("City", "113.160.0.1").Return(cityAt(21.0245, 105.8412), nil)

	loc, err := location.NewGeoIPProvider(reader, "113.160.0.1").CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 21.0245, loc.Latitude)
	assert.Equal(t, 105.8412, loc.Longitude)
	reader.AssertExpectations(t)
}

func TestGeoIPProvider_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		ip     string
		record *geoip2.City
		err    error
	}{
		{name: "no coordinates", ip: "10.0.0.1", record: cityAt(0, 0)},
		{name: "lookup error", ip: "10.0.0.2", err: errors.New("invalid database")},
		{name: "invalid ip", ip: "not-an-ip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := new(MockCityReader)
			reader.On("City", mock.Anything).Return(tt.record, tt.err).Maybe()

			_, err := location.NewGeoIPProvider(reader, tt.ip).CurrentLocation(context.Background())
			assert.ErrorIs(t, err, providers.ErrPositionUnavailable)
		})
	}
}

func TestOpenGeoIPProvider_MissingDatabase(t *testing.T) {
	_, err := location.OpenGeoIPProvider(filepath.Join(t.TempDir(), "GeoLite2-City.mmdb"), "113.160.0.1")
	assert.ErrorIs(t, err, providers.ErrPositionUnavailable)
	assert.NotErrorIs(t, err, providers.ErrPermissionDenied)
}

func TestOpenGeoIPProvider_CorruptDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GeoLite2-City.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("not a maxmind database"), 0o644))

	_, err := location.OpenGeoIPProvider(path, "113.160.0.1")
	assert.ErrorIs(t, err, providers.ErrPositionUnavailable)
}

func TestOpenGeoIPProvider_UnreadableDatabase(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	path := filepath.Join(t.TempDir(), "GeoLite2-City.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o000))

	_, err := location.OpenGeoIPProvider(path, "113.160.0.1")
	assert.ErrorIs(t, err, providers.ErrPermissionDenied)
}
