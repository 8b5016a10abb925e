// Package pipeline orchestrates the ordered discovery strategies that turn
// a free-text query into ranked product records: cache lookup, primary and
// alternate search endpoints, detail-page verification, an external
// site-restricted search, a sitemap crawl, and finally the local catalog.
// All remote stages share a single wall-clock budget.
package pipeline

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"finder/internal/cache"
	"finder/internal/catalog"
	"finder/internal/classify"
	"finder/internal/config"
	"finder/internal/domain"
	"finder/internal/extract"
	"finder/internal/fetch"
	"finder/internal/monitoring"
	"finder/internal/rank"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pipeline resolves queries. Safe for concurrent use; concurrent identical
// queries are not deduplicated (duplicate work, not a correctness hazard).
type Pipeline struct {
	cfg     *config.Config
	fetcher *fetch.Fetcher
	store   cache.Store
	catalog *catalog.Matcher
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

func New(cfg *config.Config, f *fetch.Fetcher, store cache.Store, matcher *catalog.Matcher, m *monitoring.Metrics, l *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		fetcher: f,
		store:   store,
		catalog: matcher,
		metrics: m,
		logger:  l,
	}
}

// resolveState is the mutable state threaded through one query's stages.
type resolveState struct {
	query      domain.Query
	budget     Budget
	candidates []domain.Product
	verified   []domain.Product
	source     string
	sourceURL  string
	hydrated   map[string]bool // detail URLs fetched already; one hydration pass per candidate
}

type stage struct {
	name string
	run  func(context.Context, *resolveState) bool // false stops the chain
}

// Resolve answers a query. Upstream-site unreliability never surfaces as an
// error; the only failure mode is malformed query parameters.
func (p *Pipeline) Resolve(ctx context.Context, q domain.Query) (*domain.Resolution, error) {
	if strings.TrimSpace(q.Term) == "" || q.MaxPrice < 0 || q.Limit < 0 {
		return nil, domain.ErrInvalidQuery
	}
	q = q.Clamp()

	start := time.Now()
	defer func() {
		p.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}()

	if p.cfg.RemoteEnabled && p.cfg.SearchURL != "" {
		if res := p.cachedRemote(ctx, q); res != nil {
			p.metrics.CacheHits.Inc()
			p.metrics.IncQueries("cache")
			return res, nil
		}
		if res := p.resolveRemote(ctx, q); res != nil {
			p.metrics.IncQueries(res.Source)
			return res, nil
		}
	}

	res := p.resolveLocal(ctx, q)
	if res.FromCache {
		p.metrics.CacheHits.Inc()
	}
	p.metrics.IncQueries("local")
	return res, nil
}

func (p *Pipeline) cachedRemote(ctx context.Context, q domain.Query) *domain.Resolution {
	entry, err := p.store.Get(ctx, q.Signature("remote"))
	if err != nil {
		return nil
	}
	return &domain.Resolution{
		Products:  entry.Products,
		Source:    entry.Source,
		SourceURL: entry.SourceURL,
		FromCache: true,
	}
}

// resolveRemote runs the remote discovery chain. A nil return means every
// remote stage produced nothing and the caller should fall back to the
// local catalog.
func (p *Pipeline) resolveRemote(ctx context.Context, q domain.Query) *domain.Resolution {
	st := &resolveState{
		query:    q,
		budget:   NewBudget(time.Duration(p.cfg.QueryBudgetMS) * time.Millisecond),
		hydrated: make(map[string]bool),
	}

	stages := []stage{
		{"primary", p.stagePrimary},
		{"alternate", p.stageAlternate},
		{"verify", p.stageVerify},
		{"external-search", p.stageExternal},
		{"sitemap", p.stageSitemap},
	}

	for _, s := range stages {
		if st.budget.Exceeded() {
			p.logger.Debug("query budget exhausted",
				zap.String("term", q.Term), zap.String("next_stage", s.name))
			break
		}
		if !s.run(ctx, st) {
			break
		}
	}

	if len(st.verified) == 0 {
		return nil
	}

	results := p.finalize(st)
	if len(results) == 0 {
		return nil
	}

	res := &domain.Resolution{
		Products:  results,
		Source:    st.source,
		SourceURL: st.sourceURL,
	}
	// Non-empty results only: a transient empty answer must not poison
	// future identical queries for the TTL window.
	_ = p.store.Set(ctx, q.Signature("remote"), cache.Entry{
		Products:  res.Products,
		Source:    res.Source,
		SourceURL: res.SourceURL,
	}, time.Duration(p.cfg.CacheTTL)*time.Second)
	return res
}

// stagePrimary fetches the configured search endpoint and extracts
// candidates, mining the layout when structured data runs thin.
func (p *Pipeline) stagePrimary(ctx context.Context, st *resolveState) bool {
	st.candidates = p.searchCandidates(ctx, st, "primary", p.cfg.SearchURL)
	st.source = "primary"
	return true
}

// stageAlternate runs only when the primary stage produced nothing
// detail-likely, and replaces the candidates only when it does better.
func (p *Pipeline) stageAlternate(ctx context.Context, st *resolveState) bool {
	if p.cfg.AltSearchURL == "" || countDetail(st.candidates) > 0 {
		return true
	}
	if st.budget.Exceeded() {
		return true
	}
	prevURL := st.sourceURL
	alt := p.searchCandidates(ctx, st, "alternate", p.cfg.AltSearchURL)
	if countDetail(alt) > 0 {
		st.candidates = alt
		st.source = "alternate"
	} else {
		st.sourceURL = prevURL
	}
	return true
}

func (p *Pipeline) stageVerify(ctx context.Context, st *resolveState) bool {
	st.verified = p.verify(ctx, st, st.candidates)
	return len(st.verified) == 0
}

// searchCandidates fetches one search URL template and extracts products.
func (p *Pipeline) searchCandidates(ctx context.Context, st *resolveState, stageName, template string) []domain.Product {
	searchURL := buildSearchURL(template, st.query.Term)
	st.sourceURL = searchURL

	p.metrics.IncFetches(stageName)
	body, finalURL, err := p.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		p.metrics.IncErrors(fetchErrType(err))
		p.logger.Debug("search fetch failed", zap.String("stage", stageName), zap.Error(err))
		return nil
	}

	candidates := extract.Products(body, finalURL)
	if len(candidates) < extract.FallbackThreshold {
		candidates = extract.Dedupe(append(candidates, extract.LayoutProducts(body, finalURL)...))
	}
	p.logger.Debug("search candidates extracted",
		zap.String("stage", stageName), zap.Int("count", len(candidates)))
	return candidates
}

// verify fetches each unique detail-classified candidate's own page and
// keeps only candidates whose page actually confirmed a product. Fan-out is
// bounded by the worker cap; the fetch count is bounded both by the target
// result count and the absolute cap.
func (p *Pipeline) verify(ctx context.Context, st *resolveState, candidates []domain.Product) []domain.Product {
	var targets []domain.Product
	seen := make(map[string]bool)
	for _, c := range candidates {
		key := strings.ToLower(c.URL)
		if c.URL == "" || seen[key] || st.hydrated[key] || !classify.DetailLikely(c.URL) {
			continue
		}
		seen[key] = true
		st.hydrated[key] = true
		targets = append(targets, c)
		if len(targets) >= p.cfg.VerifyCap {
			break
		}
	}
	if len(targets) == 0 {
		return nil
	}

	results := make([]*domain.Product, len(targets))
	var confirmed atomic.Int64
	target := int64(st.query.Limit)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.VerifyWorkers)
	for i, c := range targets {
		if st.budget.Exceeded() {
			break
		}
		i, c := i, c
		g.Go(func() error {
			if st.budget.Exceeded() || confirmed.Load() >= target {
				return nil
			}
			p.metrics.IncFetches("verify")
			body, finalURL, err := p.fetcher.Fetch(gctx, c.URL)
			if err != nil {
				p.metrics.IncErrors(fetchErrType(err))
				return nil
			}
			extracted := extract.Products(body, finalURL)
			if len(extracted) == 0 {
				return nil
			}
			merged := hydrate(c, extracted[0])
			results[i] = &merged
			confirmed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	var out []domain.Product
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// hydrate enriches a candidate with fields confirmed on its own page.
// Page-extracted fields win; candidate fields fill the gaps.
func hydrate(candidate, page domain.Product) domain.Product {
	out := page
	if out.Name == "" {
		out.Name = candidate.Name
	}
	if out.Price == 0 {
		out.Price = candidate.Price
	}
	if out.URL == "" {
		out.URL = candidate.URL
	}
	if out.ImageURL == "" {
		out.ImageURL = candidate.ImageURL
	}
	if out.Category == "" {
		out.Category = candidate.Category
	}
	if out.Description == "" {
		out.Description = candidate.Description
	}
	return out
}

// finalize filters by the requested category and price ceiling, truncates
// to the limit, and ranks. Results pass out of here ranked, filtered, and
// deduplicated; nothing else is returned to callers.
func (p *Pipeline) finalize(st *resolveState) []domain.Product {
	q := st.query
	var filtered []domain.Product
	for _, prod := range extract.Dedupe(st.verified) {
		if q.Category != "" && !strings.Contains(strings.ToLower(prod.Category), strings.ToLower(q.Category)) {
			continue
		}
		if q.MaxPrice > 0 && prod.Price > q.MaxPrice {
			continue
		}
		filtered = append(filtered, prod)
	}

	ranked := rank.Prioritize(filtered)
	if len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}
	return ranked
}

func (p *Pipeline) resolveLocal(ctx context.Context, q domain.Query) *domain.Resolution {
	key := q.Signature("local")
	if entry, err := p.store.Get(ctx, key); err == nil {
		return &domain.Resolution{
			Products:  entry.Products,
			Source:    "local",
			FromCache: true,
		}
	}

	products := p.catalog.Search(q)
	if len(products) > 0 {
		_ = p.store.Set(ctx, key, cache.Entry{Products: products, Source: "local"},
			time.Duration(p.cfg.CacheTTL)*time.Second)
	}
	return &domain.Resolution{Products: products, Source: "local"}
}

func buildSearchURL(template, term string) string {
	return strings.ReplaceAll(template, "{query}", url.QueryEscape(term))
}

func countDetail(products []domain.Product) int {
	n := 0
	for _, p := range products {
		if classify.DetailLikely(p.URL) {
			n++
		}
	}
	return n
}

func fetchErrType(err error) string {
	var statusErr *domain.StatusError
	switch {
	case errors.Is(err, domain.ErrFetchTimeout):
		return "fetch_timeout"
	case errors.As(err, &statusErr):
		return "fetch_status"
	default:
		return "fetch_failed"
	}
}
