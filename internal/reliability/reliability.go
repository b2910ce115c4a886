// Package reliability tracks per-host fetch outcomes and derives adaptive
// timeouts from observed response times.
package reliability

import (
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTimeout applies until a host has enough history to trust.
	DefaultTimeout = 10 * time.Second
	// MinTimeout and MaxTimeout clamp the adaptive window.
	MinTimeout = 5 * time.Second
	MaxTimeout = 30 * time.Second

	// minSuccesses is the history needed before the timeout adapts.
	minSuccesses = 3
)

// DomainStats aggregates outcome history for one host. Counts only grow;
// entries live for the process lifetime.
type DomainStats struct {
	Host            string
	SuccessCount    int64
	FailureCount    int64
	AvgResponseTime time.Duration
	Timeout         time.Duration
	StatusCodes     map[int]int64
}

// hostEntry pairs a host's stats with the lock serializing its updates.
type hostEntry struct {
	mu    sync.Mutex
	stats DomainStats
	timed int64 // observations with nonzero elapsed, the mean's denominator
}

// Tracker holds stats per host. The map is guarded by its own lock while
// each entry serializes its updates independently, so two hosts never
// contend with each other.
type Tracker struct {
	mu    sync.RWMutex
	hosts map[string]*hostEntry
}

func NewTracker() *Tracker {
	return &Tracker{hosts: make(map[string]*hostEntry)}
}

// TimeoutFor returns the adaptive timeout for rawURL's host. Unknown hosts
// and unparseable URLs get DefaultTimeout.
func (t *Tracker) TimeoutFor(rawURL string) time.Duration {
	host, ok := hostOf(rawURL)
	if !ok {
		return DefaultTimeout
	}
	t.mu.RLock()
	e := t.hosts[host]
	t.mu.RUnlock()
	if e == nil {
		return DefaultTimeout
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.Timeout
}

// Record notes one fetch outcome against rawURL's host. Zero elapsed
// observations count toward success/failure totals but leave the response
// time average untouched; a zero status records no code.
func (t *Tracker) Record(rawURL string, success bool, elapsed time.Duration, status int) {
	host, ok := hostOf(rawURL)
	if !ok {
		return
	}
	e := t.entry(host)

	e.mu.Lock()
	defer e.mu.Unlock()
	d := &e.stats
	if success {
		d.SuccessCount++
	} else {
		d.FailureCount++
	}
	if elapsed > 0 {
		e.timed++
		d.AvgResponseTime += (elapsed - d.AvgResponseTime) / time.Duration(e.timed)
	}
	if status != 0 {
		d.StatusCodes[status]++
	}
	if d.SuccessCount >= minSuccesses {
		d.Timeout = clamp(d.AvgResponseTime*3/2, MinTimeout, MaxTimeout)
	}
}

// Snapshot returns a copy of the stats for host.
func (t *Tracker) Snapshot(host string) (DomainStats, bool) {
	t.mu.RLock()
	e := t.hosts[strings.ToLower(host)]
	t.mu.RUnlock()
	if e == nil {
		return DomainStats{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.stats
	out.StatusCodes = make(map[int]int64, len(e.stats.StatusCodes))
	for code, n := range e.stats.StatusCodes {
		out.StatusCodes[code] = n
	}
	return out, true
}

// All snapshots every tracked host, for debug output.
func (t *Tracker) All() []DomainStats {
	t.mu.RLock()
	hosts := make([]string, 0, len(t.hosts))
	for h := range t.hosts {
		hosts = append(hosts, h)
	}
	t.mu.RUnlock()
	out := make([]DomainStats, 0, len(hosts))
	for _, h := range hosts {
		if s, ok := t.Snapshot(h); ok {
			out = append(out, s)
		}
	}
	return out
}

func (t *Tracker) entry(host string) *hostEntry {
	t.mu.RLock()
	e, ok := t.hosts[host]
	t.mu.RUnlock()
	if ok {
		return e
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.hosts[host]; ok {
		return e
	}
	e = &hostEntry{stats: DomainStats{
		Host:        host,
		Timeout:     DefaultTimeout,
		StatusCodes: make(map[int]int64),
	}}
	t.hosts[host] = e
	return e
}

func hostOf(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Host), true
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
