package location

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"

	"github.com/oschwald/geoip2-golang"
	"github.com/rs/zerolog/log"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/providers"
)

// CityReader is the subset of *geoip2.Reader the provider needs
type CityReader interface {
	City(ip net.IP) (*geoip2.City, error)
}

// GeoIPProvider resolves the user's position from their public IP with a MaxMind City database
type GeoIPProvider struct {
	reader CityReader
	closer func() error
	ip     net.IP
}

// OpenGeoIPProvider opens the database at path. A file the process may not read is
// providers.ErrPermissionDenied; a missing or corrupt one is providers.ErrPositionUnavailable.
func OpenGeoIPProvider(path, ip string) (*GeoIPProvider, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("GeoIP database unavailable")
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: open %s: %v", providers.ErrPermissionDenied, path, err)
		}
		return nil, fmt.Errorf("%w: open %s: %v", providers.ErrPositionUnavailable, path, err)
	}
	p := NewGeoIPProvider(reader, ip)
	p.closer = reader.Close
	return p, nil
}

// NewGeoIPProvider wraps an already open reader
func NewGeoIPProvider(reader CityReader, ip string) *GeoIPProvider {
	return &GeoIPProvider{reader: reader, ip: net.ParseIP(ip)}
}

// CurrentLocation looks up the configured IP
func (p *GeoIPProvider) CurrentLocation(ctx context.Context) (entities.Location, error) {
	if err := ctx.Err(); err != nil {
		return entities.Location{}, err
	}
	if p.ip == nil {
		return entities.Location{}, fmt.Errorf("%w: no valid IP address", providers.ErrPositionUnavailable)
	}

	record, err := p.reader.City(p.ip)
	if err != nil {
		return entities.Location{}, fmt.Errorf("%w: %v", providers.ErrPositionUnavailable, err)
	}
	if record == nil || (record.Location.Latitude == 0 && record.Location.Longitude == 0) {
		return entities.Location{}, fmt.Errorf("%w: no coordinates for %s", providers.ErrPositionUnavailable, p.ip)
	}

	log.Debug().
		Str("ip", p.ip.String()).
		Uint16("accuracy_km", record.Location.AccuracyRadius).
		Msg("Resolved location from GeoIP")

	return entities.Location{
		Latitude:  record.Location.Latitude,
		Longitude: record.Location.Longitude,
	}, nil
}

// Close releases the database when the provider opened it
func (p *GeoIPProvider) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}
