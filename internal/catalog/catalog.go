// Package catalog is the final resolution fallback: keyword, category,
// price and rating scoring over a static pre-loaded catalog. A search here
// always succeeds; an empty result is a valid outcome, never an error.
package catalog

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"finder/internal/domain"

	"go.uber.org/zap"
)

// Scoring weights applied after the hard filters.
const (
	tokenScore    = 2.0 // per distinct query token present
	phraseScore   = 3.0 // full query phrase appears verbatim
	categoryScore = 2.0 // exact category match
	ceilingScore  = 1.0 // price within the stated ceiling
	ratingWeight  = 0.2
)

// Matcher serves queries from a read-only in-memory catalog.
type Matcher struct {
	items  []domain.Product
	logger *zap.Logger
}

// Load reads the catalog document from path. A missing or malformed
// document yields an empty catalog rather than a failing matcher.
func Load(path string, logger *zap.Logger) *Matcher {
	m := &Matcher{logger: logger}

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("catalog unavailable, using empty catalog", zap.String("path", path), zap.Error(err))
		return m
	}

	var doc struct {
		Products []domain.Product `json:"products"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		logger.Warn("catalog malformed, using empty catalog", zap.String("path", path), zap.Error(err))
		return m
	}

	m.items = doc.Products
	logger.Info("catalog loaded", zap.String("path", path), zap.Int("products", len(m.items)))
	return m
}

// NewMatcher wraps an in-memory item list, for tests and pre-built catalogs.
func NewMatcher(items []domain.Product, logger *zap.Logger) *Matcher {
	return &Matcher{items: items, logger: logger}
}

// Search applies the hard filters (price ceiling, exact category), scores
// the remaining entries, and returns up to q.Limit of them in descending
// score order. Ties keep catalog order.
func (m *Matcher) Search(q domain.Query) []domain.Product {
	q = q.Clamp()
	term := strings.ToLower(strings.TrimSpace(q.Term))
	tokens := distinctTokens(term)

	type scored struct {
		product domain.Product
		score   float64
	}

	var hits []scored
	for _, item := range m.items {
		if q.MaxPrice > 0 && item.Price > q.MaxPrice {
			continue
		}
		if q.Category != "" && !strings.EqualFold(item.Category, q.Category) {
			continue
		}

		haystack := strings.ToLower(item.Name + " " + item.Description + " " + strings.Join(item.Tags, " "))

		score := 0.0
		matched := false
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				score += tokenScore
				matched = true
			}
		}
		if term != "" && strings.Contains(haystack, term) {
			score += phraseScore
			matched = true
		}
		if term != "" && !matched {
			continue
		}
		if q.Category != "" && strings.EqualFold(item.Category, q.Category) {
			score += categoryScore
		}
		if q.MaxPrice > 0 && item.Price <= q.MaxPrice {
			score += ceilingScore
		}
		score += ratingWeight * item.Rating

		hits = append(hits, scored{product: item, score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	if len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	out := make([]domain.Product, len(hits))
	for i, h := range hits {
		out[i] = h.product
	}
	return out
}

// Size reports how many catalog entries are loaded.
func (m *Matcher) Size() int { return len(m.items) }

func distinctTokens(term string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range strings.FieldsFunc(term, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == ',' || r == '/'
	}) {
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}
