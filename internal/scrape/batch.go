package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBatchTimeout bounds a whole FetchAll call.
const DefaultBatchTimeout = 60 * time.Second

// FetchAll fetches every unique URL in urls concurrently and returns one
// Content per unique URL, in first-seen order. The returned slice is never
// shorter than the deduplicated input: URLs still outstanding when the
// batch deadline expires, and any fetch that panics, are represented by a
// failure-marked Content. timeout <=0 means DefaultBatchTimeout.
func (s *Scraper) FetchAll(ctx context.Context, urls []string, timeout time.Duration, opts Options) []Content {
	unique := dedupeOrdered(urls)
	if len(unique) == 0 {
		return []Content{}
	}
	if timeout <= 0 {
		timeout = DefaultBatchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type slot struct {
		i int
		c Content
	}
	done := make(chan slot, len(unique))
	for i, u := range unique {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("url", u).Interface("panic", r).Msg("fetch panicked")
					done <- slot{i, Content{URL: u, Error: fmt.Sprintf("fetch panicked: %v", r)}}
				}
			}()
			done <- slot{i, s.Fetch(ctx, u, opts)}
		}()
	}

	out := make([]Content, len(unique))
	filled := make([]bool, len(unique))
	remaining := len(unique)
	for remaining > 0 {
		select {
		case r := <-done:
			out[r.i] = r.c
			filled[r.i] = true
			remaining--
		case <-ctx.Done():
			// Stragglers are abandoned; their goroutines drain into the
			// buffered channel and are collected by the runtime.
			for i := range out {
				if !filled[i] {
					out[i] = Content{URL: unique[i], Error: "batch fetch deadline exceeded"}
				}
			}
			log.Warn().Int("pending", remaining).Dur("timeout", timeout).
				Msg("batch fetch deadline exceeded, synthesizing placeholders")
			return out
		}
	}
	return out
}

// dedupeOrdered drops repeated URLs keeping first-seen order.
func dedupeOrdered(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
