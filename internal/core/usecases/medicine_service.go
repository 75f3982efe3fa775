package usecases

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/core/ports"
	"github.com/samirrijal/medifly/internal/core/ranking"
	"github.com/samirrijal/medifly/internal/pkg/metrics"
)

const categoriesCacheKey = "medicines:categories"

// MedicineService handles the medicine catalogue.
type MedicineService struct {
	medicines ports.MedicineRepository
	cache     ports.CacheService
	ranker    *ranking.Ranker
}

// NewMedicineService creates a new MedicineService. cache may be nil.
func NewMedicineService(medicines ports.MedicineRepository, cache ports.CacheService, ranker *ranking.Ranker) *MedicineService {
	return &MedicineService{medicines: medicines, cache: cache, ranker: ranker}
}

// List returns the in-stock catalogue, optionally restricted to a category.
// A non-blank query ranks the results by relevance.
func (s *MedicineService) List(ctx context.Context, category, query string) ([]domain.Medicine, error) {
	ctx, span := tracer.Start(ctx, "MedicineService.List")
	defer span.End()

	meds, err := s.byCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	mode := "text"
	if strings.TrimSpace(query) == "" {
		mode = "browse"
	}
	metrics.SearchRequests.WithLabelValues("medicine", mode).Inc()

	results := s.ranker.SearchMedicines(query, meds)
	metrics.SearchResults.WithLabelValues("medicine").Observe(float64(len(results)))
	return results, nil
}

func (s *MedicineService) byCategory(ctx context.Context, category string) ([]domain.Medicine, error) {
	cacheKey := "medicines:list:" + category
	var cached []domain.Medicine
	if getJSON(ctx, s.cache, cacheKey, &cached) {
		metrics.CacheHits.WithLabelValues("medicines_list").Inc()
		return cached, nil
	}

	meds, err := s.medicines.List(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}

	setJSON(ctx, s.cache, cacheKey, meds, 300)
	return meds, nil
}

// Categories returns the distinct categories in alphabetical order.
func (s *MedicineService) Categories(ctx context.Context) ([]string, error) {
	var cached []string
	if getJSON(ctx, s.cache, categoriesCacheKey, &cached) {
		return cached, nil
	}

	cats, err := s.medicines.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	setJSON(ctx, s.cache, categoriesCacheKey, cats, 600)
	return cats, nil
}

// GetByID returns a single medicine.
func (s *MedicineService) GetByID(ctx context.Context, id string) (*domain.Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

// Create adds a medicine to the catalogue.
func (s *MedicineService) Create(ctx context.Context, m *domain.Medicine) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Category = strings.TrimSpace(m.Category)
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}
	if m.Category == "" {
		return fmt.Errorf("%w: category is required", domain.ErrInvalidArgument)
	}
	if m.Price < 0 || math.IsNaN(m.Price) {
		return fmt.Errorf("%w: price must be non-negative", domain.ErrInvalidArgument)
	}
	if m.Quantity != nil && *m.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be non-negative", domain.ErrInvalidArgument)
	}

	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()
	if err := s.medicines.Create(ctx, m); err != nil {
		return fmt.Errorf("create medicine: %w", err)
	}

	s.invalidate(ctx, m.Category)
	return nil
}

func (s *MedicineService) invalidate(ctx context.Context, category string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, "medicines:list:")
	_ = s.cache.Delete(ctx, "medicines:list:"+category)
	_ = s.cache.Delete(ctx, categoriesCacheKey)
}
