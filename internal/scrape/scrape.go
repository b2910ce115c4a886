// Package scrape retrieves one page per call and normalizes it into plain
// text: cache check, adaptive per-host timeout, optional headless render
// with static fallback, main-content extraction, and metrics. Every
// failure comes back as data in the Content, never as an error return.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/go-trawl/trawl/internal/cache"
	"github.com/go-trawl/trawl/internal/extract"
	"github.com/go-trawl/trawl/internal/fetch"
	"github.com/go-trawl/trawl/internal/gate"
	"github.com/go-trawl/trawl/internal/metrics"
	"github.com/go-trawl/trawl/internal/reliability"
	"github.com/go-trawl/trawl/internal/render"
)

// cachedHTMLCap bounds how much raw HTML a cache entry keeps. The text is
// what downstream consumers read; the HTML tail is rarely worth the disk.
const cachedHTMLCap = 50_000

// GateKey names the scraper's permit pool in the shared gate registry.
const GateKey = "scrape"

// Content is the outcome of one fetch attempt, successful or not. It is
// immutable once returned.
type Content struct {
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Text        string            `json:"text"`
	HTML        string            `json:"html"`
	ContentType string            `json:"content_type"`
	Metadata    map[string]string `json:"metadata"`
	Error       string            `json:"error,omitempty"`
	ScrapeTime  float64           `json:"scrape_time"`
}

// IsSuccessful reports whether the fetch produced usable text.
func (c Content) IsSuccessful() bool {
	return c.Error == "" && c.Text != ""
}

// Options tune a single Fetch call.
type Options struct {
	// Dynamic asks for a headless-browser render first. Renderer errors
	// and timeouts fall back to the static path.
	Dynamic bool
	// ForceRefresh bypasses the cache read; successes are still written
	// back.
	ForceRefresh bool
}

// Scraper fetches and extracts pages. All fields are shared process-wide
// state injected once at construction; Scraper itself adds only the
// advisory in-flight set.
type Scraper struct {
	Client      *fetch.Client
	Renderer    render.Renderer   // nil disables the dynamic path entirely
	Extractor   extract.Extractor // nil means the heuristic extractor
	Cache       *cache.Store
	Gate        *gate.Registry
	Reliability *reliability.Tracker
	Metrics     *metrics.Metrics

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Fetch retrieves rawURL and extracts its main content. It always returns
// a well-formed Content; inspect Error to distinguish outcomes.
func (s *Scraper) Fetch(ctx context.Context, rawURL string, opts Options) Content {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Content{URL: rawURL, Error: "invalid URL format"}
	}

	if !s.markInFlight(rawURL) {
		// Advisory only: a racing duplicate wastes a fetch, it does not
		// corrupt anything.
		return Content{URL: rawURL, Error: "URL fetch already in progress"}
	}
	defer s.clearInFlight(rawURL)

	key := cache.Key(u.Host, u.Path)
	if !opts.ForceRefresh {
		if raw, ok := s.Cache.Load(key); ok {
			var cached Content
			if err := json.Unmarshal(raw, &cached); err == nil {
				log.Debug().Str("url", rawURL).Msg("scrape cache hit")
				s.Metrics.CacheHit("scrape")
				return cached
			}
			log.Warn().Str("key", key).Msg("corrupt cached scrape entry, refetching")
		}
		s.Metrics.CacheMiss("scrape")
	}

	timeout := s.Reliability.TimeoutFor(rawURL)
	if err := s.Gate.Acquire(ctx, GateKey); err != nil {
		return Content{URL: rawURL, Error: fmt.Sprintf("fetch canceled: %v", err)}
	}
	defer s.Gate.Release(GateKey)

	start := time.Now()
	content := s.retrieve(ctx, rawURL, u, timeout, opts.Dynamic)
	content.ScrapeTime = time.Since(start).Seconds()

	if content.IsSuccessful() {
		s.save(key, content)
	}
	return content
}

// retrieve runs the dynamic path when asked, falling back to static on any
// renderer problem, and records reliability and metrics per attempt.
func (s *Scraper) retrieve(ctx context.Context, rawURL string, u *url.URL, timeout time.Duration, dynamic bool) Content {
	if dynamic && s.Renderer != nil {
		start := time.Now()
		html, err := s.Renderer.Render(ctx, rawURL, timeout)
		elapsed := time.Since(start)
		if err == nil {
			s.Reliability.Record(rawURL, true, elapsed, 0)
			s.Metrics.PageFetch("dynamic", true, elapsed)
			return s.build(rawURL, u, []byte(html), "text/html")
		}
		s.Reliability.Record(rawURL, false, elapsed, 0)
		s.Metrics.PageFetch("dynamic", false, elapsed)
		log.Debug().Str("url", rawURL).Err(err).Msg("dynamic render failed, falling back to static fetch")
	}

	start := time.Now()
	body, contentType, status, err := s.Client.Get(ctx, rawURL, timeout)
	elapsed := time.Since(start)
	if err != nil {
		s.Reliability.Record(rawURL, false, elapsed, status)
		s.Metrics.PageFetch("static", false, elapsed)
		return Content{URL: rawURL, Error: fmt.Sprintf("fetch failed: %v", err)}
	}
	s.Reliability.Record(rawURL, true, elapsed, status)
	s.Metrics.PageFetch("static", true, elapsed)
	return s.build(rawURL, u, body, contentType)
}

// build extracts the main content and assembles the result. Extraction
// never fails outright; malformed HTML degrades to empty text.
func (s *Scraper) build(rawURL string, u *url.URL, body []byte, contentType string) Content {
	ex := s.Extractor
	if ex == nil {
		ex = extract.HeuristicExtractor{}
	}
	doc := ex.Extract(body)
	meta := map[string]string{
		"url":    rawURL,
		"domain": u.Host,
	}
	if doc.Title != "" {
		meta["title"] = doc.Title
	}
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	return Content{
		URL:         rawURL,
		Title:       doc.Title,
		Text:        doc.Text,
		HTML:        string(body),
		ContentType: mediaType(contentType),
		Metadata:    meta,
	}
}

// save caches a successful result, capping the stored HTML.
func (s *Scraper) save(key string, c Content) {
	if len(c.HTML) > cachedHTMLCap {
		c.HTML = c.HTML[:cachedHTMLCap]
	}
	raw, err := json.Marshal(c)
	if err != nil {
		log.Warn().Str("url", c.URL).Err(err).Msg("cannot marshal scrape result for cache")
		return
	}
	s.Cache.Save(key, raw)
}

func (s *Scraper) markInFlight(rawURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight == nil {
		s.inFlight = make(map[string]struct{})
	}
	if _, busy := s.inFlight[rawURL]; busy {
		return false
	}
	s.inFlight[rawURL] = struct{}{}
	return true
}

func (s *Scraper) clearInFlight(rawURL string) {
	s.mu.Lock()
	delete(s.inFlight, rawURL)
	s.mu.Unlock()
}

func mediaType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}
