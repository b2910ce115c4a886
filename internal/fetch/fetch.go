// Package fetch issues single static HTTP GETs with browser-like headers.
// Pacing, retries, and concurrency limits belong to the callers; a Client
// performs exactly one request per call.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultMaxBodyBytes caps how much of a response body is read. Pages past
// the cap are truncated, not rejected.
const DefaultMaxBodyBytes = 2 << 20

// DefaultTimeout bounds a request when the caller does not pass one.
const DefaultTimeout = 10 * time.Second

var (
	// ErrUnsupportedScheme reports a URL outside http/https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrUnsupportedContentType reports a response the extractor cannot use.
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

// userAgents is a small pool of current browser strings. Search and result
// pages serve degraded markup, or nothing, to clients that do not look like
// a browser.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

// PickUserAgent returns the USER_AGENT environment override when set and a
// random entry from the browser pool otherwise.
func PickUserAgent() string {
	if ua := strings.TrimSpace(os.Getenv("USER_AGENT")); ua != "" {
		return ua
	}
	return userAgents[rand.IntN(len(userAgents))]
}

// Client fetches one page per Get call. The zero value works; fields tune
// identity and limits.
type Client struct {
	// HTTPClient overrides the transport, mainly for tests. It is cloned
	// so the redirect policy never mutates the caller's client.
	HTTPClient *http.Client
	// UserAgent is sent verbatim. Empty picks from the pool per request.
	UserAgent string
	// Proxy routes requests through an http(s) proxy URL when set.
	Proxy string
	// MaxBodyBytes caps the bytes read per response. <=0 means default.
	MaxBodyBytes int64
	// RedirectMaxHops caps redirect chains. <=0 means 5.
	RedirectMaxHops int

	clientOnce sync.Once
	client     *http.Client
}

// Get fetches rawURL and returns the body, the Content-Type header, and the
// HTTP status code. timeout bounds the whole call including the body read;
// <=0 means DefaultTimeout. The status is reported whenever a response
// arrived, error or not.
func (c *Client) Get(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, string, int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", 0, fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return nil, "", 0, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", 0, fmt.Errorf("new request: %w", err)
	}
	ua := c.UserAgent
	if ua == "" {
		ua = PickUserAgent()
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", resp.StatusCode, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !isAllowedContentType(contentType) {
		return nil, contentType, resp.StatusCode, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}

	max := c.MaxBodyBytes
	if max <= 0 {
		max = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, max))
	if err != nil {
		return nil, contentType, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, contentType, resp.StatusCode, nil
}

func (c *Client) httpClient() *http.Client {
	c.clientOnce.Do(func() {
		base := &http.Client{}
		if c.HTTPClient != nil {
			clone := *c.HTTPClient
			base = &clone
		}
		// Per-request timeouts come from the context, never the client.
		base.Timeout = 0
		base.CheckRedirect = c.checkRedirect
		if c.Proxy != "" && base.Transport == nil {
			if pu, err := url.Parse(c.Proxy); err == nil && pu.Host != "" {
				t := http.DefaultTransport.(*http.Transport).Clone()
				t.Proxy = http.ProxyURL(pu)
				base.Transport = t
			} else {
				log.Warn().Str("proxy", c.Proxy).Msg("ignoring unparseable proxy URL")
			}
		}
		c.client = base
	})
	return c.client
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	if len(via) >= max {
		return errors.New("too many redirects")
	}
	if req.URL == nil || !isHTTPScheme(req.URL) {
		return fmt.Errorf("redirect to %w", ErrUnsupportedScheme)
	}
	return nil
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	}
	return false
}

// isAllowedContentType keeps the payloads the extractor understands. An
// absent header is allowed; plenty of small sites never set one.
func isAllowedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if ct == "" {
		return true
	}
	return strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml") ||
		strings.HasPrefix(ct, "text/plain")
}
