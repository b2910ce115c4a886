package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsRecordSafely(t *testing.T) {
	var m *Metrics
	m.ProviderSearch("google", true, time.Second)
	m.PageFetch("static", false, time.Second)
	m.CacheHit("search")
	m.CacheMiss("scrape")
}

func TestCountersAppearInExposition(t *testing.T) {
	m := New()
	m.ProviderSearch("google", true, 250*time.Millisecond)
	m.ProviderSearch("bing", false, 2*time.Second)
	m.PageFetch("static", true, time.Second)
	m.CacheHit("search")
	m.CacheMiss("scrape")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`trawl_provider_searches_total{provider="google",status="success"} 1`,
		`trawl_provider_searches_total{provider="bing",status="failure"} 1`,
		`trawl_page_fetches_total{mode="static",status="success"} 1`,
		`trawl_cache_hits_total{kind="search"} 1`,
		`trawl_cache_misses_total{kind="scrape"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestIndependentRegistries(t *testing.T) {
	// Two Metrics must not collide; New registers on a private registry.
	a := New()
	b := New()
	a.CacheHit("search")

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if strings.Contains(rec.Body.String(), `trawl_cache_hits_total{kind="search"} 1`) {
		t.Error("second registry observed the first registry's counters")
	}
}
