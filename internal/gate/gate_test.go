package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/patchpilot/patchpilot/pkg/models"
)

func TestGate_CapacityClamp(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"zero clamps to one", 0, 1},
		{"negative clamps to one", -3, 1},
		{"positive kept", 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.in).Capacity(); got != tt.want {
				t.Errorf("New(%d).Capacity() = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestGate_BoundsInFlight(t *testing.T) {
	g := New(2)
	ctx := context.Background()

	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if g.TryAcquire() {
		t.Fatal("third acquire should fail at capacity 2")
	}

	g.Release()
	if !g.TryAcquire() {
		t.Fatal("acquire should succeed after release")
	}
}

// One release unblocks exactly one waiter, in first-requested order.
func TestGate_FIFOUnblocking(t *testing.T) {
	const waiters = 3
	g := New(1)
	ctx := context.Background()

	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	order := make(chan int, waiters)
	started := make(chan struct{})
	for i := 0; i < waiters; i++ {
		i := i
		go func() {
			if i == 0 {
				close(started)
			} else {
				// Stagger so arrival order is deterministic.
				time.Sleep(time.Duration(i) * 50 * time.Millisecond)
			}
			if err := g.Acquire(ctx); err != nil {
				t.Errorf("waiter %d: %v", i, err)
				return
			}
			order <- i
		}()
	}
	<-started
	// Let all waiters queue up.
	time.Sleep(time.Duration(waiters) * 60 * time.Millisecond)

	for want := 0; want < waiters; want++ {
		select {
		case got := <-order:
			t.Fatalf("waiter %d ran before any release", got)
		default:
		}

		g.Release()
		select {
		case got := <-order:
			if got != want {
				t.Fatalf("release %d unblocked waiter %d, want %d", want, got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("release %d unblocked nobody", want)
		}
	}
}

func TestGate_AcquireHonorsContext(t *testing.T) {
	g := New(1)
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := g.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire with full gate = %v, want deadline exceeded", err)
	}
}

func TestGate_WithSlotReleasesOnError(t *testing.T) {
	g := New(1)
	wantErr := errors.New("attempt failed")

	err := g.WithSlot(context.Background(), func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("WithSlot error = %v, want %v", err, wantErr)
	}
	if !g.TryAcquire() {
		t.Fatal("slot was not released after fn error")
	}
}

func TestGate_WithSlotReleasesOnPanic(t *testing.T) {
	g := New(1)

	func() {
		defer func() { recover() }()
		_ = g.WithSlot(context.Background(), func(ctx context.Context) error {
			panic("attempt blew up")
		})
	}()

	if !g.TryAcquire() {
		t.Fatal("slot was not released after panic")
	}
}

func TestRegistry_PerTierCapacities(t *testing.T) {
	r := NewRegistry(map[models.Tier]int{
		models.TierFast:     4,
		models.TierDeep:     1,
		models.TierReviewer: 2,
	})

	tests := []struct {
		tier models.Tier
		want int
	}{
		{models.TierFast, 4},
		{models.TierDeep, 1},
		{models.TierReviewer, 2},
	}
	for _, tt := range tests {
		if got := r.Get(tt.tier).Capacity(); got != tt.want {
			t.Errorf("Get(%q).Capacity() = %d, want %d", tt.tier, got, tt.want)
		}
	}

	// Same tier always resolves to the same gate instance.
	if r.Get(models.TierFast) != r.Get(models.TierFast) {
		t.Error("Get returned different gates for the same tier")
	}

	// Unknown tiers share the fallback.
	if r.Get(models.Tier("turbo")) != r.Get(models.Tier("nitro")) {
		t.Error("unknown tiers should share one fallback gate")
	}
}
