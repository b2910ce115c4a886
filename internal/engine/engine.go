// Package engine wires the retrieval components around their shared state
// (cache, gates, reliability, metrics) and exposes the two calls upstream
// consumers use: Search and FetchPages.
package engine

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/go-trawl/trawl/internal/aggregate"
	"github.com/go-trawl/trawl/internal/cache"
	"github.com/go-trawl/trawl/internal/config"
	"github.com/go-trawl/trawl/internal/fetch"
	"github.com/go-trawl/trawl/internal/gate"
	"github.com/go-trawl/trawl/internal/metrics"
	"github.com/go-trawl/trawl/internal/reliability"
	"github.com/go-trawl/trawl/internal/render"
	"github.com/go-trawl/trawl/internal/retry"
	"github.com/go-trawl/trawl/internal/scrape"
	"github.com/go-trawl/trawl/internal/search"
)

// searchGateKey names the provider fan-out's permit pool; scraping uses
// its own pool so slow page fetches never starve searches.
const searchGateKey = "search"

// Engine is the process-wide retrieval facade. Construct one per process
// with New and share it freely across goroutines.
type Engine struct {
	cfg        config.Config
	aggregator *aggregate.Aggregator
	scraper    *scrape.Scraper
	renderer   *render.Chrome
	metrics    *metrics.Metrics
}

// New builds an Engine from cfg. It never fails: a missing cache dir
// disables caching, a missing browser disables dynamic rendering, and an
// unconfigured provider drops out of the registry; everything else runs.
func New(cfg config.Config) *Engine {
	store := cache.New(cfg.Cache.Dir, cfg.Cache.TTL)
	gates := gate.NewRegistry(cfg.Gate.Capacity)
	tracker := reliability.NewTracker()
	m := metrics.New()

	client := &fetch.Client{
		UserAgent: cfg.Fetch.UserAgent,
		Proxy:     cfg.Fetch.Proxy,
	}
	chrome := &render.Chrome{Bin: cfg.Browser.Bin}

	e := &Engine{
		cfg: cfg,
		aggregator: &aggregate.Aggregator{
			Providers: buildRegistry(cfg),
			Cache:     store,
			Retry: &retry.Executor{
				Gate:       gates,
				GateKey:    searchGateKey,
				MaxRetries: cfg.Retry.Max,
			},
			Metrics: m,
		},
		scraper: &scrape.Scraper{
			Client:      client,
			Renderer:    chrome,
			Cache:       store,
			Gate:        gates,
			Reliability: tracker,
			Metrics:     m,
		},
		renderer: chrome,
		metrics:  m,
	}
	return e
}

// Search fans query out to the named providers and returns a deduplicated,
// shuffled list of at most maxResults hits. Provider failures contribute
// nothing; they never fail the call.
func (e *Engine) Search(ctx context.Context, query string, providers []string, forceRefresh bool, maxResults int) []search.Result {
	return e.aggregator.Search(ctx, query, providers, aggregate.Options{
		ForceRefresh: forceRefresh,
		MaxResults:   maxResults,
	})
}

// FetchPage retrieves one URL. Failures are reported in Content.Error.
func (e *Engine) FetchPage(ctx context.Context, url string, dynamic, forceRefresh bool) scrape.Content {
	return e.scraper.Fetch(ctx, url, scrape.Options{Dynamic: dynamic, ForceRefresh: forceRefresh})
}

// FetchPages retrieves every unique URL under the configured batch
// deadline, in first-seen order, one Content per unique URL.
func (e *Engine) FetchPages(ctx context.Context, urls []string, dynamic, forceRefresh bool) []scrape.Content {
	return e.scraper.FetchAll(ctx, urls, e.cfg.Batch.Timeout, scrape.Options{
		Dynamic:      dynamic,
		ForceRefresh: forceRefresh,
	})
}

// Metrics exposes the engine's instruments, mainly for an HTTP handler.
func (e *Engine) Metrics() *metrics.Metrics { return e.metrics }

// Close releases the headless browser if one was ever launched.
func (e *Engine) Close() {
	if err := e.renderer.Close(); err != nil {
		log.Debug().Err(err).Msg("browser shutdown")
	}
}

// buildRegistry registers every provider that has what it needs. The
// scraping providers always work; searxng and tavily join only when
// configured, and their absence fails lookups for just those names.
func buildRegistry(cfg config.Config) search.Registry {
	ua := fetch.PickUserAgent()
	reg := search.Registry{
		search.KindGoogle:     &search.Google{UserAgent: ua},
		search.KindDuckDuckGo: &search.DuckDuckGo{UserAgent: ua},
		search.KindBing:       &search.Bing{UserAgent: ua},
		search.KindWikipedia:  &search.Wikipedia{UserAgent: ua},
		search.KindNews:       &search.News{UserAgent: ua},
	}
	if cfg.Searx.URL != "" {
		reg[search.KindSearxNG] = &search.SearxNG{
			BaseURL:   cfg.Searx.URL,
			APIKey:    cfg.Searx.Key,
			UserAgent: ua,
		}
	} else {
		log.Debug().Msg("searxng not configured, provider disabled")
	}
	if cfg.Tavily.Key != "" {
		reg[search.KindTavily] = &search.Tavily{APIKey: cfg.Tavily.Key}
	} else {
		log.Debug().Msg("tavily key not set, provider disabled")
	}
	return reg
}
