package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-trawl/trawl/internal/config"
	"github.com/go-trawl/trawl/internal/search"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Cache.Dir = t.TempDir()
	cfg.Batch.Timeout = 5 * time.Second
	return cfg
}

func TestRegistryOmitsUnconfiguredProviders(t *testing.T) {
	reg := buildRegistry(testConfig(t))
	for _, k := range []search.Kind{search.KindGoogle, search.KindDuckDuckGo, search.KindBing, search.KindWikipedia, search.KindNews} {
		if _, ok := reg[k]; !ok {
			t.Errorf("provider %q missing from default registry", k)
		}
	}
	for _, k := range []search.Kind{search.KindSearxNG, search.KindTavily} {
		if _, ok := reg[k]; ok {
			t.Errorf("provider %q registered without configuration", k)
		}
	}
}

func TestRegistryIncludesConfiguredProviders(t *testing.T) {
	cfg := testConfig(t)
	cfg.Searx.URL = "http://searx.internal:8888"
	cfg.Tavily.Key = "tvly-test"
	reg := buildRegistry(cfg)
	if _, ok := reg[search.KindSearxNG]; !ok {
		t.Error("searxng missing despite a base URL")
	}
	if _, ok := reg[search.KindTavily]; !ok {
		t.Error("tavily missing despite an API key")
	}
}

func TestSearchSkipsUnknownProviderNames(t *testing.T) {
	e := New(testConfig(t))
	defer e.Close()

	got := e.Search(context.Background(), "q", []string{"askjeeves"}, false, 5)
	if len(got) != 0 {
		t.Fatalf("got %v from an unknown provider", got)
	}
}

func TestFetchPagesEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>ok</title></head><body>
<article class="content"><p>The engine facade wires cache, gates, and
reliability once and shares them across both entry points.</p></article>
</body></html>`))
	}))
	defer srv.Close()

	e := New(testConfig(t))
	defer e.Close()

	got := e.FetchPages(context.Background(), []string{"bogus://x", srv.URL + "/a"}, false, false)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Error != "invalid URL format" {
		t.Errorf("slot 0 error = %q", got[0].Error)
	}
	if !got[1].IsSuccessful() || !strings.Contains(got[1].Text, "wires cache") {
		t.Errorf("slot 1 = %+v, want extracted text", got[1])
	}

	// Single-page entry point shares the same cache.
	single := e.FetchPage(context.Background(), srv.URL+"/a", false, false)
	if !single.IsSuccessful() {
		t.Errorf("FetchPage after FetchPages failed: %q", single.Error)
	}
}
