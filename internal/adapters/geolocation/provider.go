package geolocation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/core/ports"
)

const reverseCacheTTL = 60 * 60 * 24 * 7

// Provider implements ports.GeolocationProvider on top of iplocate and Nominatim.
// Reverse lookups are cached when a cache is supplied.
type Provider struct {
	ip      *IPLocate
	reverse *Nominatim
	cache   ports.CacheService
}

// NewProvider combines the two clients. cache may be nil.
func NewProvider(ip *IPLocate, reverse *Nominatim, cache ports.CacheService) *Provider {
	return &Provider{ip: ip, reverse: reverse, cache: cache}
}

// LookupIP resolves an IP address.
func (p *Provider) LookupIP(ctx context.Context, ip string) (*domain.Place, error) {
	return p.ip.Lookup(ctx, ip)
}

// ReverseGeocode resolves coordinates, rounding the cache key to about 10 m.
func (p *Provider) ReverseGeocode(ctx context.Context, pt domain.GeoPoint) (*domain.Place, error) {
	key := fmt.Sprintf("geo:reverse:%.4f:%.4f", pt.Lat, pt.Lon)
	if p.cache != nil {
		if data, err := p.cache.Get(ctx, key); err == nil && len(data) > 0 {
			var place domain.Place
			if json.Unmarshal(data, &place) == nil {
				place.Location = pt
				return &place, nil
			}
		}
	}

	place, err := p.reverse.Reverse(ctx, pt)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if data, err := json.Marshal(place); err == nil {
			_ = p.cache.Set(ctx, key, data, reverseCacheTTL)
		}
	}
	return place, nil
}
