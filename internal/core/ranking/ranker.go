package ranking

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/pkg/fuzzy"
	"github.com/samirrijal/medifly/internal/pkg/geospatial"
)

// Ranker is safe for concurrent use.
type Ranker struct {
	cfg     Config
	matcher *fuzzy.Matcher
}

// New creates a Ranker.
func New(cfg Config) *Ranker {
	return &Ranker{cfg: cfg, matcher: fuzzy.New(cfg.Tiers)}
}

// Breakdown is the per-field score of one pharmacy against a query.
type Breakdown struct {
	Name    float64
	Address float64
	Phone   float64
	Total   float64
}

// Score rates p against a non-empty, trimmed query.
func (r *Ranker) Score(query string, p domain.Pharmacy) Breakdown {
	b := Breakdown{
		Name:    r.matcher.Score(query, p.Name),
		Address: r.matcher.Score(query, p.Address),
		Phone:   r.phoneScore(query, p.Phone),
	}
	w := r.cfg.Weights
	b.Total = w.Name*b.Name + w.Address*b.Address + w.Phone*b.Phone
	return b
}

func (r *Ranker) phoneScore(query, phone string) float64 {
	q := fuzzy.Digits(query)
	if len(q) < r.cfg.PhoneMinDigits {
		return 0
	}
	if strings.Contains(fuzzy.Digits(phone), q) {
		return r.cfg.PhoneScore
	}
	return 0
}

type candidate struct {
	result domain.RankedResult
	index  int
}

// Rank filters pharmacies to the active ones within q.RadiusKm of q.Origin and
// orders them. With blank text the order is nearest first. Otherwise results
// scoring above the noise threshold are returned best first, ties broken by
// distance and then input order.
func (r *Ranker) Rank(q domain.SearchQuery, pharmacies []domain.Pharmacy) ([]domain.RankedResult, error) {
	if err := Validate(q); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(q.Text)
	var kept []candidate

	for i, p := range pharmacies {
		if !p.Active {
			continue
		}
		d := geospatial.DistanceWithRadius(q.Origin, p.Location, r.cfg.EarthRadiusKm)
		if d > q.RadiusKm {
			continue
		}

		res := domain.RankedResult{Pharmacy: p, DistanceKm: d}
		if text != "" {
			b := r.Score(text, p)
			if b.Total <= r.cfg.NoiseThreshold {
				continue
			}
			res.Score = b.Total
			res.NameScore = b.Name
			res.AddressScore = b.Address
			res.PhoneScore = b.Phone
		}
		kept = append(kept, candidate{result: res, index: i})
	}

	slices.SortFunc(kept, func(a, b candidate) int {
		if text != "" {
			if c := cmp.Compare(b.result.Score, a.result.Score); c != 0 {
				return c
			}
		}
		if c := cmp.Compare(a.result.DistanceKm, b.result.DistanceKm); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})

	out := make([]domain.RankedResult, len(kept))
	for i, c := range kept {
		out[i] = c.result
	}
	return out, nil
}

// Validate rejects non-finite origins and negative or NaN radii.
func Validate(q domain.SearchQuery) error {
	if !finite(q.Origin.Lat) || !finite(q.Origin.Lon) {
		return fmt.Errorf("%w: origin must be finite", domain.ErrInvalidArgument)
	}
	if math.IsNaN(q.RadiusKm) || q.RadiusKm < 0 {
		return fmt.Errorf("%w: radius must be a non-negative number", domain.ErrInvalidArgument)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
