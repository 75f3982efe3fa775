package ranking

import (
	"slices"
	"strings"

	"github.com/samirrijal/medifly/internal/core/domain"
)

// SearchMedicines returns the in-stock medicines relevant to query.
// Medicines whose name or description contains the query come first in input
// order, followed by fuzzy matches above MedicineThreshold, best first.
// A blank query returns every in-stock medicine in input order.
func (r *Ranker) SearchMedicines(query string, medicines []domain.Medicine) []domain.Medicine {
	q := strings.ToLower(strings.TrimSpace(query))

	inStock := make([]domain.Medicine, 0, len(medicines))
	for _, m := range medicines {
		if m.InStock {
			inStock = append(inStock, m)
		}
	}
	if q == "" {
		return inStock
	}

	type scored struct {
		med   domain.Medicine
		score float64
	}

	var direct []domain.Medicine
	var fuzzyHits []scored
	for _, m := range inStock {
		if strings.Contains(strings.ToLower(m.Name), q) || strings.Contains(strings.ToLower(m.Description), q) {
			direct = append(direct, m)
			continue
		}
		s := max(r.matcher.Score(q, m.Name), r.matcher.Score(q, m.Description))
		if s > r.cfg.MedicineThreshold {
			fuzzyHits = append(fuzzyHits, scored{med: m, score: s})
		}
	}

	slices.SortStableFunc(fuzzyHits, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	out := direct
	for _, h := range fuzzyHits {
		out = append(out, h.med)
	}
	return out
}
