package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DuckDuckGo scrapes the plain-HTML endpoint at html.duckduckgo.com.
// It needs no API key, which makes it the default provider.
type DuckDuckGo struct {
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string // overridable for tests
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	base := d.BaseURL
	if base == "" {
		base = "https://html.duckduckgo.com/html/"
	}
	doc, err := fetchDocument(ctx, d.HTTPClient, base+"?q="+url.QueryEscape(query), d.UserAgent)
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, limit)
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		a := s.Find("a.result__a").First()
		href, _ := a.Attr("href")
		title := strings.TrimSpace(a.Text())
		if href == "" || title == "" {
			return true
		}
		// The HTML endpoint emits site-relative redirect links.
		if strings.HasPrefix(href, "/") {
			href = "https://duckduckgo.com" + href
		}
		out = append(out, Result{
			Title:   title,
			URL:     href,
			Snippet: strings.TrimSpace(s.Find("a.result__snippet").First().Text()),
			Source:  d.Name(),
		})
		return len(out) < limit
	})
	return out, nil
}
