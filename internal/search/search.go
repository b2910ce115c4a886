package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Result represents a single search hit from any provider.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"` // provider name for observability
}

// String renders a result for logs and debug output.
func (r Result) String() string {
	return fmt.Sprintf("%s (%s): %s", r.Title, r.URL, r.Snippet)
}

// Provider is a minimal interface for search providers.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Name() string
}

// Kind enumerates the supported providers. The set is closed: a name that
// Parse does not recognize is reported as ErrUnsupported, and callers skip
// it rather than guessing.
type Kind string

const (
	KindGoogle     Kind = "google"
	KindDuckDuckGo Kind = "duckduckgo"
	KindBing       Kind = "bing"
	KindWikipedia  Kind = "wikipedia"
	KindSearxNG    Kind = "searxng"
	KindTavily     Kind = "tavily"
	KindNews       Kind = "news"
)

// ErrUnsupported reports a provider name outside the supported set.
var ErrUnsupported = errors.New("unsupported search provider")

// ErrNotConfigured reports a provider invoked without its required
// credential or endpoint. Only calls to that provider fail; the rest of
// the set is unaffected.
var ErrNotConfigured = errors.New("provider is not configured")

// Parse canonicalizes a raw provider name. Matching is case-insensitive
// and ignores surrounding whitespace.
func Parse(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	switch k {
	case KindGoogle, KindDuckDuckGo, KindBing, KindWikipedia, KindSearxNG, KindTavily, KindNews:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, name)
}

// Kinds returns the supported provider set in stable order.
func Kinds() []Kind {
	return []Kind{KindGoogle, KindDuckDuckGo, KindBing, KindWikipedia, KindSearxNG, KindTavily, KindNews}
}

// Registry binds each configured Kind to its Provider implementation.
// A Kind may be absent when its provider cannot be constructed (for
// example searxng without a base URL); Lookup reports those as
// unsupported so callers handle both cases the same way.
type Registry map[Kind]Provider

// Lookup resolves a raw provider name against the registry.
func (r Registry) Lookup(name string) (Provider, error) {
	k, err := Parse(name)
	if err != nil {
		return nil, err
	}
	p, ok := r[k]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not configured", ErrUnsupported, name)
	}
	return p, nil
}
