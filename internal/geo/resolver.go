// Package geo resolves client IP addresses to coarse geolocation.
//
// Resolvers are best-effort: a nil result or any error means "no geo data"
// and callers carry on without it. Three implementations are provided:
//
//   - HTTPResolver: an ip-api.com style JSON web service.
//   - MaxMindResolver: an offline GeoLite2/GeoIP2 City database.
//   - CachedResolver: wraps another resolver with a TTL cache, request
//     coalescing and an outbound rate limit.
//
// IsPublic is the filter applied before any lookup is attempted.
package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"

	"github.com/tbourn/go-link-tracker/internal/config"
	"github.com/tbourn/go-link-tracker/internal/domain"
)

// Resolver looks up geolocation for one IP address.
type Resolver interface {
	Lookup(ctx context.Context, ip string) (*domain.GeoInfo, error)
}

// ErrThrottled is returned by CachedResolver when the outbound rate limit
// rejects a lookup. The lookup is dropped, not queued.
var ErrThrottled = errors.New("geo: lookup throttled")

// Carrier-grade NAT space is not routable from the public internet either.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// IsPublic reports whether ip is a globally routable unicast address worth
// geolocating. "Unknown", unparsable input, loopback, RFC 1918 and ULA
// private ranges, link-local, multicast and unspecified addresses are
// rejected.
func IsPublic(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap().WithZone("")
	switch {
	case !addr.IsGlobalUnicast():
		// excludes loopback, link-local, multicast, unspecified
		return false
	case addr.IsPrivate():
		return false
	case addr.Is4() && sharedAddressSpace.Contains(addr):
		return false
	}
	return true
}

// New builds the resolver selected by cfg. It returns a nil Resolver when
// lookups are disabled. Results from the chosen provider are cached and
// throttled according to cfg; the returned value implements io.Closer.
func New(cfg config.GeoConfig) (Resolver, error) {
	var base Resolver
	switch cfg.Provider {
	case config.GeoProviderNone:
		return nil, nil
	case config.GeoProviderHTTP:
		base = NewHTTPResolver(cfg.Endpoint, &http.Client{Timeout: cfg.Timeout})
	case config.GeoProviderMaxMind:
		mm, err := OpenMaxMind(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open geoip database: %w", err)
		}
		base = mm
	default:
		return nil, fmt.Errorf("unknown geo provider %q", cfg.Provider)
	}
	return NewCachedResolver(base, cfg.CacheTTL, cfg.RPS, cfg.Burst), nil
}

// closeIfCloser releases r when it holds resources.
func closeIfCloser(r Resolver) error {
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
