// Package extract pulls product records out of retrieved markup: embedded
// schema.org blocks first, anchor/price layout mining as a fallback.
package extract

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"finder/internal/classify"
	"finder/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

var (
	numberRe    = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
	thousandsRe = regexp.MustCompile(`,[0-9]{3}(?:[^0-9]|$)`)
)

// Products scans markup for embedded structured-data blocks and normalizes
// every schema.org Product node found into the canonical shape. Malformed
// blocks are skipped individually; one broken script never aborts the page.
func Products(htmlContent, pageURL string) []domain.Product {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}
	return FromDocument(doc, pageURL)
}

// FromDocument is Products over an already-parsed document.
func FromDocument(doc *goquery.Document, pageURL string) []domain.Product {
	base, _ := url.Parse(pageURL)

	var out []domain.Product
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var node any
		if err := json.Unmarshal([]byte(s.Text()), &node); err != nil {
			return
		}
		walk(node, func(obj map[string]any) {
			if p, ok := normalize(obj, base); ok {
				out = append(out, p)
			}
		})
	})
	return Dedupe(out)
}

// walk visits every object in a structured-data tree, unwrapping arrays,
// @graph containers, ItemList elements and ListItem wrappers.
func walk(node any, visit func(map[string]any)) {
	switch n := node.(type) {
	case []any:
		for _, item := range n {
			walk(item, visit)
		}
	case map[string]any:
		visit(n)
		for _, key := range []string{"@graph", "itemListElement", "item", "mainEntity"} {
			if child, ok := n[key]; ok {
				walk(child, visit)
			}
		}
	}
}

// normalize turns one structured-data object into a Product. A node missing
// a name is rejected outright; a node with neither a positive price nor a
// detail-classified URL is discarded as a likely category stub.
func normalize(obj map[string]any, base *url.URL) (domain.Product, bool) {
	if !typeIncludes(obj["@type"], "Product") {
		return domain.Product{}, false
	}

	name := strings.TrimSpace(pickString(obj, "name"))
	if name == "" {
		return domain.Product{}, false
	}

	p := domain.Product{
		Name:        name,
		Price:       offerPrice(obj),
		Category:    pickString(obj, "category"),
		Description: strings.TrimSpace(pickString(obj, "description")),
		URL:         Resolve(base, pickString(obj, "url", "@id")),
		ImageURL:    Resolve(base, firstImage(obj["image"])),
		Tags:        keywordTags(obj["keywords"]),
	}

	if p.Price <= 0 && !classify.DetailLikely(p.URL) {
		return domain.Product{}, false
	}
	return p, true
}

func typeIncludes(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, want)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

func pickString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// offerPrice scans offer sub-objects for a price, falling back to a nested
// price specification. Offers may be a single object or a list.
func offerPrice(obj map[string]any) float64 {
	offers, ok := obj["offers"]
	if !ok {
		return ParsePrice(obj["price"])
	}

	var candidates []any
	switch o := offers.(type) {
	case []any:
		candidates = o
	case map[string]any:
		candidates = []any{o}
	}

	for _, c := range candidates {
		offer, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if v := ParsePrice(offer["price"]); v > 0 {
			return v
		}
		if spec, ok := offer["priceSpecification"].(map[string]any); ok {
			if v := ParsePrice(spec["price"]); v > 0 {
				return v
			}
		}
		if v := ParsePrice(offer["lowPrice"]); v > 0 {
			return v
		}
	}
	return 0
}

// ParsePrice extracts a non-negative numeric price from a JSON value. A
// string value may carry currency punctuation ("$6.99", "1,299.00 EUR").
func ParsePrice(v any) float64 {
	switch t := v.(type) {
	case float64:
		if t > 0 {
			return t
		}
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), " ", "")
		if thousandsRe.MatchString(s) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
		if m := numberRe.FindString(s); m != "" {
			if f, err := strconv.ParseFloat(m, 64); err == nil && f > 0 {
				return f
			}
		}
	}
	return 0
}

// firstImage takes the first image when multiple are given, unwrapping
// ImageObject nodes.
func firstImage(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			return firstImage(t[0])
		}
	case map[string]any:
		if s, ok := t["url"].(string); ok {
			return s
		}
	}
	return ""
}

func keywordTags(v any) []string {
	switch t := v.(type) {
	case string:
		var tags []string
		for _, part := range strings.Split(t, ",") {
			if p := strings.TrimSpace(part); p != "" {
				tags = append(tags, p)
			}
		}
		return tags
	case []any:
		var tags []string
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				tags = append(tags, strings.TrimSpace(s))
			}
		}
		return tags
	}
	return nil
}

// Resolve turns a possibly-relative reference into an absolute URL against
// the page base.
func Resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String()
}

// Dedupe drops duplicate records, keyed by lowercased URL when present,
// else lowercased name. First occurrence wins.
func Dedupe(products []domain.Product) []domain.Product {
	seen := make(map[string]bool, len(products))
	out := products[:0:0]
	for _, p := range products {
		key := strings.ToLower(p.URL)
		if key == "" {
			key = "name:" + strings.ToLower(p.Name)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
