package pipeline

import (
	"context"
	"net/url"
	"strings"

	"finder/internal/classify"
	"finder/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// stageExternal issues a site-restricted query against an external search
// engine's HTML results page, collects links shaped like detail URLs, and
// re-runs verification on them. Reached only when verification produced
// nothing.
func (p *Pipeline) stageExternal(ctx context.Context, st *resolveState) bool {
	host := siteHost(p.cfg.SearchURL)
	if host == "" || p.cfg.ExternalURL == "" {
		return true
	}

	searchURL := p.cfg.ExternalURL + "?q=" +
		url.QueryEscape("site:"+host+" "+st.query.Term)

	p.metrics.IncFetches("external-search")
	body, _, err := p.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		p.metrics.IncErrors(fetchErrType(err))
		p.logger.Debug("external search failed", zap.Error(err))
		return true
	}

	links := resultLinks(body, host)
	if len(links) == 0 {
		return true
	}

	candidates := make([]domain.Product, 0, len(links))
	for _, l := range links {
		candidates = append(candidates, domain.Product{Name: l.title, URL: l.target})
	}

	st.verified = p.verify(ctx, st, candidates)
	if len(st.verified) == 0 {
		return true
	}
	st.source = "external-search"
	st.sourceURL = searchURL
	return false
}

type resultLink struct {
	target string
	title  string
}

// resultLinks pulls outbound links off a search results page, unwrapping
// the engine's redirect links, and keeps those on the source host that
// classify as detail-likely.
func resultLinks(body, host string) []resultLink {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var out []resultLink
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		target := unwrapRedirect(href)
		u, err := url.Parse(target)
		if err != nil || !strings.EqualFold(strings.TrimPrefix(u.Host, "www."), strings.TrimPrefix(host, "www.")) {
			return
		}
		if !classify.DetailLikely(target) {
			return
		}
		key := strings.ToLower(target)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, resultLink{target: target, title: strings.Join(strings.Fields(s.Text()), " ")})
	})
	return out
}

// unwrapRedirect decodes DuckDuckGo-style /l/?uddg= redirect links down to
// their real target.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		if decoded, err := url.QueryUnescape(uddg); err == nil {
			return decoded
		}
	}
	return href
}

func siteHost(template string) string {
	u, err := url.Parse(template)
	if err != nil {
		return ""
	}
	return u.Host
}

// siteBase returns scheme://host of the configured search template.
func siteBase(template string) string {
	u, err := url.Parse(template)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
