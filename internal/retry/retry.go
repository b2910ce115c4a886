// Package retry runs fallible network work under a concurrency gate, with
// a short random jitter before every attempt and a linearly scaled random
// backoff between attempts.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/go-trawl/trawl/internal/gate"
)

// DefaultMaxRetries is the number of extra attempts after the first.
const DefaultMaxRetries = 2

const (
	jitterFloor = 100 * time.Millisecond
	jitterSpan  = 400 * time.Millisecond
)

// Executor bounds and paces attempts. The zero value retries twice without
// a gate; callers share one Executor across goroutines.
type Executor struct {
	Gate       *gate.Registry
	GateKey    string
	MaxRetries int // extra attempts after the first; <=0 means DefaultMaxRetries

	// Sleep replaces the pacing waits in tests. Nil sleeps on the clock,
	// returning early when ctx is done.
	Sleep func(ctx context.Context, d time.Duration)
}

// Do runs fn until it succeeds or the attempt budget is spent. It returns
// the zero T with the last error on exhaustion; callers translate that
// into an empty result rather than propagating it.
func Do[T any](ctx context.Context, ex *Executor, name string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	maxRetries := ex.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Scale the random backoff by how many attempts have failed.
			ex.sleep(ctx, time.Duration(float64(attempt)*(1+2*rand.Float64())*float64(time.Second)))
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		out, err := runOnce(ctx, ex, fn)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		lastErr = err
		log.Debug().Str("op", name).Int("attempt", attempt+1).Err(err).Msg("attempt failed")
	}
	return zero, fmt.Errorf("%s: %d attempts failed: %w", name, maxRetries+1, lastErr)
}

func runOnce[T any](ctx context.Context, ex *Executor, fn func(context.Context) (T, error)) (T, error) {
	if ex.Gate != nil {
		if err := ex.Gate.Acquire(ctx, ex.GateKey); err != nil {
			var zero T
			return zero, err
		}
		defer ex.Gate.Release(ex.GateKey)
	}
	// Spread near-simultaneous calls so they do not hit a host in lockstep.
	ex.sleep(ctx, jitterFloor+time.Duration(rand.Float64()*float64(jitterSpan)))
	return fn(ctx)
}

func (ex *Executor) sleep(ctx context.Context, d time.Duration) {
	if ex.Sleep != nil {
		ex.Sleep(ctx, d)
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
