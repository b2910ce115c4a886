package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Google scrapes google.com result pages. Markup there changes without
// notice; parse failures surface as empty results, never as panics.
type Google struct {
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string // overridable for tests
}

func (g *Google) Name() string { return "google" }

func (g *Google) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	base := g.BaseURL
	if base == "" {
		base = "https://www.google.com/search"
	}
	u := fmt.Sprintf("%s?q=%s&num=%d&hl=en", base, url.QueryEscape(query), limit)
	doc, err := fetchDocument(ctx, g.HTTPClient, u, g.UserAgent)
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, limit)
	doc.Find("div.g").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := strings.TrimSpace(s.Find("h3").First().Text())
		href, _ := s.Find("a[href]").First().Attr("href")
		href = unwrapGoogleHref(href)
		if href == "" || title == "" || !strings.HasPrefix(href, "http") {
			return true
		}
		out = append(out, Result{
			Title:   title,
			URL:     href,
			Snippet: strings.TrimSpace(s.Find("div.VwiC3b").First().Text()),
			Source:  g.Name(),
		})
		return len(out) < limit
	})
	return out, nil
}

// unwrapGoogleHref strips the /url?q=<target>&... indirection google puts
// around outbound links.
func unwrapGoogleHref(href string) string {
	if !strings.HasPrefix(href, "/url?") {
		return href
	}
	q, err := url.ParseQuery(strings.TrimPrefix(href, "/url?"))
	if err != nil {
		return ""
	}
	return q.Get("q")
}
