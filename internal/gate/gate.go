// Package gate bounds concurrent outbound work with counting semaphores,
// one per named execution context, so independent contexts never share or
// leak permits.
package gate

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultCapacity is the permit count used when none is configured.
const DefaultCapacity = 5

// Registry lazily creates one semaphore per key. Creation is guarded by a
// double-checked lock; acquire and release never touch the lock.
type Registry struct {
	mu       sync.RWMutex
	capacity int64
	gates    map[string]*semaphore.Weighted
}

// NewRegistry builds a registry whose gates each hold the given number of
// permits. Capacity is clamped to [1, 10].
func NewRegistry(capacity int) *Registry {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if capacity > 10 {
		capacity = 10
	}
	return &Registry{
		capacity: int64(capacity),
		gates:    make(map[string]*semaphore.Weighted),
	}
}

// Acquire blocks until a permit is free for key's gate or ctx is done.
func (r *Registry) Acquire(ctx context.Context, key string) error {
	return r.gate(key).Acquire(ctx, 1)
}

// Release returns a permit to key's gate. Calls must pair with a
// successful Acquire.
func (r *Registry) Release(key string) {
	r.gate(key).Release(1)
}

func (r *Registry) gate(key string) *semaphore.Weighted {
	r.mu.RLock()
	g, ok := r.gates[key]
	r.mu.RUnlock()
	if ok {
		return g
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gates[key]; ok {
		return g
	}
	g = semaphore.NewWeighted(r.capacity)
	r.gates[key] = g
	return g
}
