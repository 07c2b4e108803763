package geo

import (
	"context"
	"net"

	geoip2 "github.com/oschwald/geoip2-golang"

	"github.com/tbourn/go-link-tracker/internal/domain"
)

// MaxMindResolver resolves addresses against a local GeoIP2/GeoLite2 City
// database. Lookups are in-process and do not observe ctx.
type MaxMindResolver struct {
	db *geoip2.Reader
}

// OpenMaxMind opens the database at path.
// Returns an error if the file cannot be opened or is corrupt.
func OpenMaxMind(path string) (*MaxMindResolver, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &MaxMindResolver{db: db}, nil
}

// Close closes the database reader.
func (m *MaxMindResolver) Close() error {
	return m.db.Close()
}

// Lookup returns the City record for ip, or (nil, nil) when the database
// has no country for it.
func (m *MaxMindResolver) Lookup(_ context.Context, ip string) (*domain.GeoInfo, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, nil
	}
	rec, err := m.db.City(parsed)
	if err != nil {
		return nil, err
	}
	if rec.Country.IsoCode == "" {
		return nil, nil
	}

	info := &domain.GeoInfo{
		Country:     rec.Country.Names["en"],
		CountryCode: rec.Country.IsoCode,
		City:        rec.City.Names["en"],
		Zip:         rec.Postal.Code,
		Lat:         rec.Location.Latitude,
		Lon:         rec.Location.Longitude,
		Timezone:    rec.Location.TimeZone,
	}
	if len(rec.Subdivisions) > 0 {
		info.Region = rec.Subdivisions[0].IsoCode
		info.RegionName = rec.Subdivisions[0].Names["en"]
	}
	return info, nil
}
