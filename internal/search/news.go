package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mmcdole/gofeed"
)

// News searches recent coverage through the Google News RSS endpoint.
type News struct {
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string // overridable for tests
}

func (n *News) Name() string { return "news" }

func (n *News) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	base := n.BaseURL
	if base == "" {
		base = "https://news.google.com/rss/search"
	}
	feedURL := fmt.Sprintf("%s?q=%s&hl=en-US&gl=US&ceid=US:en", base, url.QueryEscape(query))

	p := gofeed.NewParser()
	if n.HTTPClient != nil {
		p.Client = n.HTTPClient
	}
	if n.UserAgent != "" {
		p.UserAgent = n.UserAgent
	}
	feed, err := p.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, limit)
	for _, item := range feed.Items {
		if item == nil || item.Link == "" || item.Title == "" {
			continue
		}
		out = append(out, Result{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Description,
			Source:  n.Name(),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
