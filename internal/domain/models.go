package domain

import (
	"fmt"
	"strings"
)

// Product is a single resolved product record. Instances are created fresh
// per extraction call and are not mutated after ranking.
type Product struct {
	Name        string   `json:"name"`
	Price       float64  `json:"price"` // 0 means unknown
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"image_url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
}

// Valid reports whether the record carries the minimum required fields.
func (p Product) Valid() bool {
	return strings.TrimSpace(p.Name) != ""
}

// Query is a free-text product lookup request. It drives remote discovery
// and, serialized via Signature, keys the result cache.
type Query struct {
	Term     string  `json:"term"`
	Category string  `json:"category,omitempty"`
	MaxPrice float64 `json:"max_price,omitempty"`
	Limit    int     `json:"limit,omitempty"`
}

// Limit bounds. A zero limit becomes DefaultLimit; anything else is clamped
// into [MinLimit, MaxLimit].
const (
	MinLimit     = 1
	MaxLimit     = 20
	DefaultLimit = 5
)

// Clamp returns a copy with the limit forced into the allowed range.
func (q Query) Clamp() Query {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit < MinLimit {
		q.Limit = MinLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Signature returns the deterministic cache key for this query. The
// subsystem discriminator keeps remote and local results cached
// independently.
func (q Query) Signature(subsystem string) string {
	return fmt.Sprintf("%s|%s|%s|%.2f|%d",
		subsystem,
		strings.ToLower(strings.TrimSpace(q.Term)),
		strings.ToLower(strings.TrimSpace(q.Category)),
		q.MaxPrice,
		q.Limit,
	)
}

// Resolution is an answered query plus its provenance.
type Resolution struct {
	Products  []Product `json:"products"`
	Source    string    `json:"source"`               // stage that produced the answer
	SourceURL string    `json:"source_url,omitempty"` // URL consulted, if any
	FromCache bool      `json:"from_cache"`
}
