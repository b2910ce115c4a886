// Package render loads pages in a headless browser for sites that only
// produce their content through JavaScript. Rendering is strictly a
// fallback path: every error here is recoverable and callers degrade to a
// static fetch.
package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

// ErrUnavailable reports that no browser could be launched on this host.
// Once launch fails the renderer stays unavailable for the process; the
// scraper falls back to static fetches without retrying the launch.
var ErrUnavailable = errors.New("headless browser unavailable")

// Renderer turns a URL into rendered HTML. Implementations must honor
// timeout and must never block past it.
type Renderer interface {
	Render(ctx context.Context, rawURL string, timeout time.Duration) (html string, err error)
}

// Chrome renders pages through a shared headless Chromium instance,
// launched lazily on first use and reused for every later call.
type Chrome struct {
	// Bin points at a browser binary. Empty lets the launcher find one.
	Bin string

	once    sync.Once
	browser *rod.Browser
	initErr error
}

// Render navigates a fresh page to rawURL, waits for the load event, and
// returns the serialized DOM. The page is closed before returning.
func (c *Chrome) Render(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	c.once.Do(c.launch)
	if c.initErr != nil {
		return "", c.initErr
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := c.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(rawURL); err != nil {
		return "", fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %w", rawURL, err)
	}
	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("serialize dom: %w", err)
	}
	return html, nil
}

func (c *Chrome) launch() {
	l := launcher.New().Headless(true)
	if c.Bin != "" {
		l = l.Bin(c.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		log.Warn().Err(err).Msg("browser launch failed, dynamic rendering disabled")
		c.initErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		return
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		log.Warn().Err(err).Msg("browser connect failed, dynamic rendering disabled")
		c.initErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		return
	}
	c.browser = browser
}

// Close shuts the shared browser down. Safe to call when launch never
// happened or failed.
func (c *Chrome) Close() error {
	if c.browser == nil {
		return nil
	}
	return c.browser.Close()
}
