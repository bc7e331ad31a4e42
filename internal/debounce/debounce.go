// Package debounce turns noisy edge interrupts into single logical events.
//
// A Gate is a single-slot mailbox. Edge is called from the interrupt side,
// TryTake from the main loop. Edges closer together than the window are
// dropped, never queued; an edge that lands while the consumer is taking
// leaves the slot full for the next poll.
package debounce

import (
	"sync/atomic"
	"time"
)

// DefaultWindow is the minimum time between two accepted edges
const DefaultWindow = 50 * time.Millisecond

// Gate debounces one input
type Gate struct {
	window time.Duration

	// last is the timestamp of the last accepted edge; only Edge writes it
	last     atomic.Int64
	accepted atomic.Bool
	pending  atomic.Bool
}

// NewGate creates a gate with the given window
func NewGate(window time.Duration) *Gate {
	return &Gate{window: window}
}

// Window returns the debounce window
func (g *Gate) Window() time.Duration {
	return g.window
}

// Edge records an edge at now and reports whether it was accepted. The very
// first edge is always accepted.
func (g *Gate) Edge(now time.Duration) bool {
	if g.accepted.Load() && now-time.Duration(g.last.Load()) < g.window {
		return false
	}
	g.last.Store(int64(now))
	g.accepted.Store(true)
	g.pending.Store(true)
	return true
}

// Handler returns an edge callback bound to g
func (g *Gate) Handler() func(ts time.Duration) {
	return func(ts time.Duration) {
		g.Edge(ts)
	}
}

// TryTake clears a pending event and reports whether there was one.
func (g *Gate) TryTake() bool {
	return g.pending.Swap(false)
}

// Pending reports whether an event is waiting without consuming it.
func (g *Gate) Pending() bool {
	return g.pending.Load()
}
