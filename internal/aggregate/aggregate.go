// Package aggregate fans one query out to several search providers and
// merges their results into a single bounded, deduplicated list.
package aggregate

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/go-trawl/trawl/internal/cache"
	"github.com/go-trawl/trawl/internal/metrics"
	"github.com/go-trawl/trawl/internal/retry"
	"github.com/go-trawl/trawl/internal/search"
)

// DefaultMaxResults bounds the merged list when the caller passes no cap.
const DefaultMaxResults = 10

// Options tune a single Search call.
type Options struct {
	// ForceRefresh bypasses the cache read; successful fetches are still
	// written back.
	ForceRefresh bool
	// MaxResults caps the merged list. <=0 means DefaultMaxResults.
	MaxResults int
}

// Aggregator runs provider fan-out. One provider failing, timing out, or
// being unknown never affects the others; its contribution is simply empty.
type Aggregator struct {
	Providers search.Registry
	Cache     *cache.Store
	Retry     *retry.Executor
	Metrics   *metrics.Metrics

	// Shuffle replaces the random shuffle in tests. Nil shuffles uniformly.
	Shuffle func(n int, swap func(i, j int))
}

// Search queries each named provider concurrently and returns at most
// MaxResults unique URLs. The merged list is shuffled before truncation so
// no provider is systematically favored for resolving first. Unknown or
// unconfigured provider names are skipped with a warning.
func (a *Aggregator) Search(ctx context.Context, query string, providers []string, opts Options) []search.Result {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	accepted := a.resolve(providers)
	if len(accepted) == 0 {
		log.Warn().Str("query", query).Msg("no usable providers, returning empty result")
		return []search.Result{}
	}

	lists := make([][]search.Result, len(accepted))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range accepted {
		g.Go(func() error {
			lists[i] = a.searchOne(gctx, p, query, maxResults, opts.ForceRefresh)
			return nil // provider failures stay local to their slot
		})
	}
	_ = g.Wait()

	merged := dedupe(lists)
	shuffle := a.Shuffle
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	shuffle(len(merged), func(i, j int) { merged[i], merged[j] = merged[j], merged[i] })
	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged
}

// resolve maps raw provider names onto configured providers, dropping
// duplicates case-insensitively and skipping names outside the set.
func (a *Aggregator) resolve(names []string) []search.Provider {
	seen := make(map[string]struct{}, len(names))
	out := make([]search.Provider, 0, len(names))
	for _, name := range names {
		p, err := a.Providers.Lookup(name)
		if err != nil {
			log.Warn().Str("provider", name).Err(err).Msg("skipping provider")
			continue
		}
		if _, dup := seen[p.Name()]; dup {
			continue
		}
		seen[p.Name()] = struct{}{}
		out = append(out, p)
	}
	return out
}

// searchOne serves one provider's slot: cache first, then the provider
// through the retry executor. Errors come back as an empty list.
func (a *Aggregator) searchOne(ctx context.Context, p search.Provider, query string, limit int, forceRefresh bool) []search.Result {
	key := cache.Key(p.Name(), query)
	if !forceRefresh {
		if raw, ok := a.Cache.Load(key); ok {
			var cached []search.Result
			if err := json.Unmarshal(raw, &cached); err == nil {
				log.Debug().Str("provider", p.Name()).Str("query", query).Msg("search cache hit")
				a.Metrics.CacheHit("search")
				return cached
			}
			log.Warn().Str("key", key).Msg("corrupt cached search entry, refetching")
		}
		a.Metrics.CacheMiss("search")
	}

	start := time.Now()
	results, err := retry.Do(ctx, a.Retry, p.Name()+" search", func(ctx context.Context) ([]search.Result, error) {
		return p.Search(ctx, query, limit)
	})
	a.Metrics.ProviderSearch(p.Name(), err == nil, time.Since(start))
	if err != nil {
		log.Warn().Str("provider", p.Name()).Str("query", query).Err(err).
			Msg("provider failed after retries, contributing no results")
		return []search.Result{}
	}

	for i := range results {
		if results[i].Source == "" {
			results[i].Source = p.Name()
		}
	}
	if len(results) > 0 {
		if raw, err := json.Marshal(results); err == nil {
			a.Cache.Save(key, raw)
		}
	}
	return results
}

// dedupe flattens the per-provider lists keeping the first occurrence of
// each exact URL. Which duplicate survives depends on slot order only,
// never on completion order.
func dedupe(lists [][]search.Result) []search.Result {
	seen := make(map[string]struct{})
	out := make([]search.Result, 0, 32)
	for _, list := range lists {
		for _, r := range list {
			if r.URL == "" {
				continue
			}
			if _, dup := seen[r.URL]; dup {
				continue
			}
			seen[r.URL] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}
