package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/core/ports"
	"github.com/samirrijal/medifly/internal/pkg/geospatial"
	"github.com/samirrijal/medifly/internal/pkg/metrics"
)

// LocationUnavailable replaces a stored location that cannot be decrypted.
const LocationUnavailable = "Location unavailable"

// LocationService detects and stores user locations. The full location is
// only ever stored encrypted; the readable copy is obfuscated.
type LocationService struct {
	geo       ports.GeolocationProvider
	locations ports.UserLocationRepository
	cipher    ports.LocationCipher
	now       func() time.Time
}

// NewLocationService creates a new LocationService.
func NewLocationService(geo ports.GeolocationProvider, locations ports.UserLocationRepository, cipher ports.LocationCipher) *LocationService {
	return &LocationService{geo: geo, locations: locations, cipher: cipher, now: time.Now}
}

// DetectFromIP resolves ip and stores the result as the user's location.
func (s *LocationService) DetectFromIP(ctx context.Context, userID, ip string) (*domain.UserLocation, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(ip) == "" {
		return nil, fmt.Errorf("%w: ip is required", domain.ErrInvalidArgument)
	}

	place, err := s.geo.LookupIP(ctx, ip)
	if err != nil {
		metrics.LocationLookups.WithLabelValues(string(domain.DetectedByIP), "error").Inc()
		return nil, fmt.Errorf("ip lookup: %w", err)
	}
	metrics.LocationLookups.WithLabelValues(string(domain.DetectedByIP), "ok").Inc()
	return s.store(ctx, userID, place, domain.DetectedByIP)
}

// DetectFromGPS reverse-geocodes p and stores the result as the user's location.
func (s *LocationService) DetectFromGPS(ctx context.Context, userID string, p domain.GeoPoint) (*domain.UserLocation, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if !geospatial.Valid(p) {
		return nil, fmt.Errorf("%w: invalid coordinates", domain.ErrInvalidArgument)
	}

	place, err := s.geo.ReverseGeocode(ctx, p)
	if err != nil {
		metrics.LocationLookups.WithLabelValues(string(domain.DetectedByGPS), "error").Inc()
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	metrics.LocationLookups.WithLabelValues(string(domain.DetectedByGPS), "ok").Inc()

	// the device fix is more precise than the geocoder's centroid
	place.Location = p
	return s.store(ctx, userID, place, domain.DetectedByGPS)
}

func (s *LocationService) store(ctx context.Context, userID string, place *domain.Place, method domain.DetectionMethod) (*domain.UserLocation, error) {
	encrypted, err := s.cipher.Encrypt(FullLocation(place))
	if err != nil {
		return nil, fmt.Errorf("encrypt location: %w", err)
	}

	loc := &domain.UserLocation{
		UserID:               userID,
		EncryptedLocation:    encrypted,
		TranscriptedLocation: Transcript(place),
		Location:             place.Location,
		DetectionMethod:      method,
		UpdatedAt:            s.now().UTC(),
	}
	if err := s.locations.Upsert(ctx, loc); err != nil {
		return nil, fmt.Errorf("store location: %w", err)
	}
	return loc, nil
}

// Current returns the user's stored location.
func (s *LocationService) Current(ctx context.Context, userID string) (*domain.UserLocation, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.locations.GetByUser(ctx, userID)
}

// Reveal decrypts the user's full stored location. A location that cannot be
// decrypted reads as LocationUnavailable.
func (s *LocationService) Reveal(ctx context.Context, userID string) (string, error) {
	loc, err := s.Current(ctx, userID)
	if err != nil {
		return "", err
	}
	plain, err := s.cipher.Decrypt(loc.EncryptedLocation)
	if err != nil {
		slog.WarnContext(ctx, "decrypt location", "user_id", userID, "error", err)
		return LocationUnavailable, nil
	}
	return plain, nil
}

// FullLocation formats a place as "city, region, country", skipping blanks.
func FullLocation(p *domain.Place) string {
	return joinNonEmpty(p.City, p.Region, p.Country)
}

// Transcript is FullLocation with the city reduced to its first three letters.
func Transcript(p *domain.Place) string {
	city := p.City
	if r := []rune(city); len(r) > 3 {
		city = string(r[:3])
	}
	if city != "" {
		city += "***"
	}
	return joinNonEmpty(city, p.Region, p.Country)
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
