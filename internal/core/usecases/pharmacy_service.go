package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/core/ports"
	"github.com/samirrijal/medifly/internal/core/ranking"
	"github.com/samirrijal/medifly/internal/pkg/geospatial"
	"github.com/samirrijal/medifly/internal/pkg/metrics"
)

// PharmacyService handles pharmacy discovery.
type PharmacyService struct {
	pharmacies ports.PharmacyRepository
	cache      ports.CacheService
	ranker     *ranking.Ranker
}

// NewPharmacyService creates a new PharmacyService. cache may be nil.
func NewPharmacyService(pharmacies ports.PharmacyRepository, cache ports.CacheService, ranker *ranking.Ranker) *PharmacyService {
	return &PharmacyService{pharmacies: pharmacies, cache: cache, ranker: ranker}
}

// Nearby returns active pharmacies within q.RadiusKm of q.Origin, ranked by
// relevance to q.Text or, when it is blank, by distance.
func (s *PharmacyService) Nearby(ctx context.Context, q domain.SearchQuery) ([]domain.RankedResult, error) {
	ctx, span := tracer.Start(ctx, "PharmacyService.Nearby")
	defer span.End()

	if err := ranking.Validate(q); err != nil {
		return nil, err
	}
	q.Text = strings.TrimSpace(q.Text)

	mode := "distance"
	if q.Text != "" {
		mode = "text"
	}
	metrics.SearchRequests.WithLabelValues("pharmacy", mode).Inc()
	span.SetAttributes(attribute.String("search.mode", mode), attribute.Float64("search.radius_km", q.RadiusKm))

	cacheKey := "pharmacies:nearby:" + strconv.FormatFloat(q.Origin.Lat, 'f', -1, 64) +
		":" + strconv.FormatFloat(q.Origin.Lon, 'f', -1, 64) +
		":" + strconv.FormatFloat(q.RadiusKm, 'f', -1, 64) +
		":" + strings.ToLower(q.Text)
	var cached []domain.RankedResult
	if getJSON(ctx, s.cache, cacheKey, &cached) {
		metrics.CacheHits.WithLabelValues("pharmacies_nearby").Inc()
		return cached, nil
	}
	if s.cache != nil {
		metrics.CacheMisses.WithLabelValues("pharmacies_nearby").Inc()
	}

	var within *domain.Bounds
	if box, ok := geospatial.BoundingBox(q.Origin, q.RadiusKm); ok {
		within = &box
	}
	candidates, err := s.pharmacies.ListActive(ctx, within)
	if err != nil {
		return nil, fmt.Errorf("list pharmacies: %w", err)
	}
	for i := range candidates {
		candidates[i].ApplyDefaults()
	}

	results, err := s.ranker.Rank(q, candidates)
	if err != nil {
		return nil, err
	}
	metrics.SearchResults.WithLabelValues("pharmacy").Observe(float64(len(results)))

	// 2 minutes; pharmacies rarely move but may open or close
	setJSON(ctx, s.cache, cacheKey, results, 120)
	return results, nil
}

// GetByID returns a single pharmacy.
func (s *PharmacyService) GetByID(ctx context.Context, id string) (*domain.Pharmacy, error) {
	cacheKey := "pharmacies:id:" + id
	var cached domain.Pharmacy
	if getJSON(ctx, s.cache, cacheKey, &cached) {
		return &cached, nil
	}

	p, err := s.pharmacies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ApplyDefaults()

	setJSON(ctx, s.cache, cacheKey, p, 600)
	return p, nil
}

// getJSON reads key from cache into v. It reports false on any miss or error.
func getJSON(ctx context.Context, cache ports.CacheService, key string, v any) bool {
	if cache == nil {
		return false
	}
	data, err := cache.Get(ctx, key)
	if err != nil || data == nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// setJSON writes v to cache; failures are ignored.
func setJSON(ctx context.Context, cache ports.CacheService, key string, v any, ttlSeconds int) {
	if cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = cache.Set(ctx, key, data, ttlSeconds)
	}
}
