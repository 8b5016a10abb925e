package extract

import (
	"net/url"
	"regexp"
	"strings"

	"finder/internal/classify"
	"finder/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

// FallbackThreshold is the structured-record count below which callers
// should also mine the page layout.
const FallbackThreshold = 3

var currencyPriceRe = regexp.MustCompile(`[$€£]\s*([0-9][0-9.,]*)`)

// LayoutProducts heuristically mines anchor and price text from markup to
// approximate product records when structured data is sparse. The records
// are explicitly lower-confidence: every anchor target must already pass
// the URL classifier, and callers re-filter before trusting them.
func LayoutProducts(htmlContent, pageURL string) []domain.Product {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}
	base, _ := url.Parse(pageURL)

	var out []domain.Product
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		target := Resolve(base, href)
		if target == "" || !classify.DetailLikely(target) {
			return
		}

		name := anchorName(s)
		if name == "" || classify.StopName(name) {
			return
		}

		p := domain.Product{
			Name:  name,
			Price: nearbyPrice(s),
			URL:   target,
		}
		if img, ok := s.Find("img").First().Attr("src"); ok {
			p.ImageURL = Resolve(base, img)
		}
		out = append(out, p)
	})
	return Dedupe(out)
}

// anchorName derives a display name from the link's title attribute, its
// text, or an enclosed image's alt text, in that order.
func anchorName(s *goquery.Selection) string {
	if title, ok := s.Attr("title"); ok && strings.TrimSpace(title) != "" {
		return squash(title)
	}
	if text := squash(s.Text()); text != "" {
		return text
	}
	if alt, ok := s.Find("img").First().Attr("alt"); ok {
		return squash(alt)
	}
	return ""
}

// nearbyPrice searches the nearest enclosing block's text for a
// currency-prefixed number.
func nearbyPrice(s *goquery.Selection) float64 {
	block := s.Closest("li, article, section, div")
	if block.Length() == 0 {
		return 0
	}
	m := currencyPriceRe.FindStringSubmatch(block.Text())
	if len(m) < 2 {
		return 0
	}
	return ParsePrice(m[1])
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
