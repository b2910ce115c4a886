package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Wikipedia queries the MediaWiki opensearch API.
type Wikipedia struct {
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string // overridable for tests
}

func (w *Wikipedia) Name() string { return "wikipedia" }

func (w *Wikipedia) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	base := w.BaseURL
	if base == "" {
		base = "https://en.wikipedia.org/w/api.php"
	}
	u := fmt.Sprintf("%s?action=opensearch&search=%s&limit=%d&namespace=0&format=json",
		base, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if w.UserAgent != "" {
		req.Header.Set("User-Agent", w.UserAgent)
	}
	hc := w.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("wikipedia status: %d", resp.StatusCode)
	}

	// Opensearch responses are a positional 4-tuple:
	// [query, titles, descriptions, urls].
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if len(raw) < 4 {
		return nil, fmt.Errorf("wikipedia: short opensearch response (%d fields)", len(raw))
	}
	var titles, snippets, urls []string
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw[2], &snippets); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw[3], &urls); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(urls))
	for i, pageURL := range urls {
		if pageURL == "" || i >= len(titles) {
			continue
		}
		r := Result{Title: titles[i], URL: pageURL, Source: w.Name()}
		if i < len(snippets) {
			r.Snippet = snippets[i]
		}
		out = append(out, r)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
