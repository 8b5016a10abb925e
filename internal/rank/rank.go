// Package rank orders candidate products by detail-likelihood, price
// presence, and descriptive richness.
package rank

import (
	"sort"

	"finder/internal/classify"
	"finder/internal/domain"
)

// Prioritize returns the candidates ordered detail-classified URL first,
// then positive price, then longer name as a tie-break proxy for
// descriptive completeness. The sort is stable, so otherwise-equal
// candidates keep their original order.
func Prioritize(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := classify.DetailLikely(out[i].URL), classify.DetailLikely(out[j].URL)
		if di != dj {
			return di
		}
		pi, pj := out[i].Price > 0, out[j].Price > 0
		if pi != pj {
			return pi
		}
		return len(out[i].Name) > len(out[j].Name)
	})
	return out
}
