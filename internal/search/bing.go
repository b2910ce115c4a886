package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Bing scrapes bing.com result pages.
type Bing struct {
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string // overridable for tests
}

func (b *Bing) Name() string { return "bing" }

func (b *Bing) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	base := b.BaseURL
	if base == "" {
		base = "https://www.bing.com/search"
	}
	u := fmt.Sprintf("%s?q=%s&count=%d", base, url.QueryEscape(query), limit)
	doc, err := fetchDocument(ctx, b.HTTPClient, u, b.UserAgent)
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, limit)
	doc.Find("li.b_algo").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		a := s.Find("h2 a").First()
		href, _ := a.Attr("href")
		title := strings.TrimSpace(a.Text())
		if href == "" || title == "" {
			return true
		}
		out = append(out, Result{
			Title:   title,
			URL:     href,
			Snippet: strings.TrimSpace(s.Find("div.b_caption p").First().Text()),
			Source:  b.Name(),
		})
		return len(out) < limit
	})
	return out, nil
}
