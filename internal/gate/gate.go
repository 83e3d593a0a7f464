// Package gate provides per-tier admission control for in-flight model
// attempts. Each tier gets one Gate bounding how many attempts may run
// concurrently; this is the system's sole backpressure mechanism toward
// the inference backend.
package gate

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/patchpilot/patchpilot/pkg/models"
)

// Gate is a counting admission control with FIFO fairness: waiters are
// unblocked in the order they called Acquire.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int
}

// New creates a Gate with the given capacity. Capacities below one are
// clamped to one.
func New(capacity int) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// Capacity returns the configured slot count.
func (g *Gate) Capacity() int {
	return g.capacity
}

// Acquire blocks until a slot is available or the context is cancelled.
// It does not consume an OS thread while waiting.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// TryAcquire takes a slot without blocking, returning false if none is
// free.
func (g *Gate) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}

// Release returns a slot to the pool, waking the longest-waiting
// acquirer if any.
func (g *Gate) Release() {
	g.sem.Release(1)
}

// WithSlot acquires a slot, runs fn, and releases the slot on every exit
// path, including a panic inside fn. This is the only way a driver
// should hold a slot.
func (g *Gate) WithSlot(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.Acquire(ctx); err != nil {
		return fmt.Errorf("acquire gate slot: %w", err)
	}
	defer g.Release()
	return fn(ctx)
}

// Registry maps each tier to its Gate. A Registry is constructed once at
// process start and shared by reference across all task drivers; there
// are no package-level gates.
type Registry struct {
	gates    map[models.Tier]*Gate
	fallback *Gate
}

// NewRegistry builds a Registry from per-tier capacities. Tiers missing
// from the map get a single-slot gate.
func NewRegistry(capacities map[models.Tier]int) *Registry {
	gates := make(map[models.Tier]*Gate, len(models.TierOrder))
	for _, tier := range models.TierOrder {
		gates[tier] = New(capacities[tier])
	}
	return &Registry{gates: gates, fallback: New(1)}
}

// Get returns the gate for a tier. Unknown tiers share a single-slot
// fallback gate rather than panicking mid-run.
func (r *Registry) Get(tier models.Tier) *Gate {
	if g, ok := r.gates[tier]; ok {
		return g
	}
	return r.fallback
}
