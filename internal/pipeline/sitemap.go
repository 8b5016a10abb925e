package pipeline

import (
	"context"
	"encoding/xml"
	"net/url"
	"sort"
	"strings"
	"time"

	"finder/internal/cache"
	"finder/internal/classify"
	"finder/internal/domain"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

const (
	maxSitemapDocs  = 5 // sitemap documents fetched per refresh, index files included
	maxSitemapDepth = 2
)

type sitemapURLSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

type sitemapIndex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// stageSitemap consults the crawled sitemap URL set (refreshing it on its
// own longer TTL), scores URLs by token overlap with the query, and re-runs
// verification on the top-scoring subset. Last remote resort before the
// local catalog.
func (p *Pipeline) stageSitemap(ctx context.Context, st *resolveState) bool {
	base := siteBase(p.cfg.SearchURL)
	if base == "" {
		return true
	}

	urls := p.sitemapURLs(ctx, st, base)
	if len(urls) == 0 {
		return true
	}

	picked := scoreByOverlap(urls, st.query.Term, p.cfg.VerifyCap)
	if len(picked) == 0 {
		return true
	}

	candidates := make([]domain.Product, 0, len(picked))
	for _, u := range picked {
		candidates = append(candidates, domain.Product{Name: nameFromURL(u), URL: u})
	}

	st.verified = p.verify(ctx, st, candidates)
	if len(st.verified) == 0 {
		return true
	}
	st.source = "sitemap"
	st.sourceURL = base + "/sitemap.xml"
	return false
}

// sitemapURLs returns the cached detail-URL set for the site, crawling its
// sitemaps on a miss. The set is cached wholesale under its own
// key-independent slot with the longer sitemap TTL.
func (p *Pipeline) sitemapURLs(ctx context.Context, st *resolveState, base string) []string {
	key := "sitemap|" + strings.ToLower(base)
	if entry, err := p.store.Get(ctx, key); err == nil {
		return entry.URLs
	}

	robots := p.fetchRobots(ctx, base)

	seeds := []string{}
	if robots != nil {
		seeds = append(seeds, robots.Sitemaps...)
	}
	seeds = append(seeds, base+"/sitemap.xml", base+"/sitemap_index.xml")

	collected := make(map[string]bool)
	docs := 0
	var crawl func(sitemapURL string, depth int)
	crawl = func(sitemapURL string, depth int) {
		if docs >= maxSitemapDocs || depth > maxSitemapDepth || st.budget.Exceeded() {
			return
		}
		docs++

		p.metrics.IncFetches("sitemap")
		body, _, err := p.fetcher.Fetch(ctx, sitemapURL)
		if err != nil {
			p.metrics.IncErrors(fetchErrType(err))
			return
		}

		var set sitemapURLSet
		if xml.Unmarshal([]byte(body), &set) == nil && len(set.URLs) > 0 {
			group := robotsGroup(robots)
			for _, u := range set.URLs {
				loc := strings.TrimSpace(u.Loc)
				if loc == "" || !classify.DetailLikely(loc) {
					continue
				}
				if group != nil {
					if parsed, err := url.Parse(loc); err == nil && !group.Test(parsed.Path) {
						continue
					}
				}
				collected[loc] = true
			}
			return
		}

		var index sitemapIndex
		if xml.Unmarshal([]byte(body), &index) == nil {
			for _, ref := range index.Sitemaps {
				crawl(strings.TrimSpace(ref.Loc), depth+1)
			}
		}
	}

	seen := make(map[string]bool)
	for _, seed := range seeds {
		if seed == "" || seen[seed] {
			continue
		}
		seen[seed] = true
		crawl(seed, 0)
		if len(collected) > 0 {
			break
		}
	}

	if len(collected) == 0 {
		return nil
	}

	urls := make([]string, 0, len(collected))
	for u := range collected {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	p.logger.Debug("sitemap refreshed", zap.String("site", base), zap.Int("urls", len(urls)))
	_ = p.store.Set(ctx, key, cache.Entry{URLs: urls},
		time.Duration(p.cfg.SitemapTTL)*time.Second)
	return urls
}

func (p *Pipeline) fetchRobots(ctx context.Context, base string) *robotstxt.RobotsData {
	body, _, err := p.fetcher.Fetch(ctx, base+"/robots.txt")
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromString(body)
	if err != nil {
		return nil
	}
	return data
}

func robotsGroup(robots *robotstxt.RobotsData) *robotstxt.Group {
	if robots == nil {
		return nil
	}
	return robots.FindGroup("*")
}

// scoreByOverlap ranks URLs by how many query tokens their path contains
// and returns the top max of those with any overlap at all.
func scoreByOverlap(urls []string, term string, max int) []string {
	tokens := strings.FieldsFunc(strings.ToLower(term), splitNonAlnum)

	type scored struct {
		url   string
		score int
	}
	var hits []scored
	for _, u := range urls {
		path := strings.ToLower(u)
		score := 0
		for _, tok := range tokens {
			if len(tok) > 1 && strings.Contains(path, tok) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{url: u, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > max {
		hits = hits[:max]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.url
	}
	return out
}

// nameFromURL derives a provisional display name from the last path
// segment; verification replaces it with the page's real name.
func nameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	last := segments[len(segments)-1]
	return strings.Join(strings.FieldsFunc(last, splitNonAlnum), " ")
}

func splitNonAlnum(r rune) bool {
	return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9')
}
