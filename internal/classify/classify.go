// Package classify decides, from path structure alone, whether a URL
// plausibly names one specific product rather than a category or listing
// page. It is a heuristic: both false positives and false negatives are
// expected and are mitigated downstream by fetch-and-confirm verification.
package classify

import (
	"net/url"
	"strings"
)

// StopTermRevision identifies the current stop-term set so classifier
// behavior stays reproducible across deployments.
const StopTermRevision = 3

// sectionMarkers are path segments that open a product section. Everything
// after the first marker is the residual path the rules inspect.
var sectionMarkers = map[string]bool{
	"productstore": true,
	"products":     true,
	"product":      true,
	"shop":         true,
	"store":        true,
	"catalog":      true,
	"collections":  true,
	"items":        true,
	"p":            true,
}

// stopTerms are known category/section names. A residual path composed only
// of these never names a specific item.
var stopTerms = map[string]bool{
	"shop":         true,
	"store":        true,
	"shop-all":     true,
	"all":          true,
	"sale":         true,
	"sales":        true,
	"new":          true,
	"new-arrivals": true,
	"arrivals":     true,
	"bestsellers":  true,
	"best-sellers": true,
	"featured":     true,
	"category":     true,
	"categories":   true,
	"collections":  true,
	"collection":   true,
	"brands":       true,
	"brand":        true,
	"gifts":        true,
	"gift-sets":    true,
	"bundles":      true,
	"accessories":  true,
	"home":         true,
	"about":        true,
	"contact":      true,
	"search":       true,
	"cart":         true,
	"checkout":     true,
	"account":      true,
	"list":         true,
	"page":         true,
}

// detailKeywords directly indicate a detail page when contained in any
// residual segment. Keyword wins over the depth rule, which wins over the
// digit rule.
var detailKeywords = []string{
	"item",
	"detail",
	"details",
	"product",
	"show-details",
}

// DetailLikely reports whether rawURL plausibly names a single product.
// It is a pure function of the URL path; identical path always yields an
// identical decision.
func DetailLikely(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return DetailLikelyPath(u.Path)
}

// DetailLikelyPath applies the classification rules to a bare path.
func DetailLikelyPath(path string) bool {
	segments := splitPath(path)

	residual := residualAfterMarker(segments)
	if len(residual) < 2 {
		// Too shallow to be a specific item.
		return false
	}

	allStop := true
	for _, seg := range residual {
		if !stopTerms[seg] {
			allStop = false
			break
		}
	}
	if allStop {
		return false
	}

	// Rule precedence: keyword > depth > digit.
	for _, seg := range residual {
		for _, kw := range detailKeywords {
			if strings.Contains(seg, kw) {
				return true
			}
		}
	}

	if len(residual) >= 3 {
		return true
	}

	for _, seg := range residual {
		if strings.ContainsAny(seg, "0123456789") {
			return true
		}
	}

	return false
}

// StopName reports whether a link name looks like a category label rather
// than a product name: every token is a known stop term.
func StopName(name string) bool {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '/'
	})
	if len(fields) == 0 {
		return true
	}
	for _, f := range fields {
		if !stopTerms[f] {
			return false
		}
	}
	return true
}

func splitPath(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		seg = strings.ToLower(strings.TrimSpace(seg))
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// residualAfterMarker returns the segments after the first section marker,
// or nil when no marker is present (such paths are never detail-likely).
func residualAfterMarker(segments []string) []string {
	for i, seg := range segments {
		if sectionMarkers[seg] {
			return segments[i+1:]
		}
	}
	return nil
}
