package core

// gate.go keeps the import pipeline single-slot.
//
// One import may be open at a time: the gate is taken when a file is
// analyzed and given back when its session is committed, cancelled or
// expires. A second analysis waits up to maxWait for the slot and then fails
// with ErrImportInProgress.
//
// WaitForDrain supports graceful shutdown by blocking until the slot is free.

import (
	"context"
	"sync"
	"time"
)

// DefaultGateWait is how long a new import waits for the open one to finish.
const DefaultGateWait = 2 * time.Second

// ImportGate serializes imports with a one-slot semaphore.
type ImportGate struct {
	slot    chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	holder string
	since  time.Time
}

// NewImportGate creates a gate. maxWait <= 0 uses DefaultGateWait.
func NewImportGate(maxWait time.Duration) *ImportGate {
	if maxWait <= 0 {
		maxWait = DefaultGateWait
	}
	return &ImportGate{
		slot:    make(chan struct{}, 1),
		maxWait: maxWait,
	}
}

// Acquire takes the slot for holder.
// Returns ErrImportInProgress if the slot stays taken for maxWait.
// The caller MUST call Release() when the import ends.
func (g *ImportGate) Acquire(ctx context.Context, holder string) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	select {
	case g.slot <- struct{}{}:
		g.take(holder)
		return nil

	case <-waitCtx.Done():
		// Distinguish caller cancellation from our own timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrImportInProgress
	}
}

func (g *ImportGate) take(holder string) {
	g.mu.Lock()
	g.holder = holder
	g.since = time.Now()
	g.mu.Unlock()
}

// Handoff renames the current holder, e.g. once a session id is known.
func (g *ImportGate) Handoff(holder string) {
	g.mu.Lock()
	g.holder = holder
	g.mu.Unlock()
}

// Release frees the slot. Must be called exactly once per successful acquire.
func (g *ImportGate) Release() {
	g.mu.Lock()
	g.holder = ""
	g.since = time.Time{}
	g.mu.Unlock()

	<-g.slot
}

// Holder returns who holds the slot, or "" when free.
func (g *ImportGate) Holder() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.holder
}

// Busy reports whether an import holds the slot.
func (g *ImportGate) Busy() bool {
	return len(g.slot) > 0
}

// WaitForDrain blocks until the slot is free or ctx is cancelled.
func (g *ImportGate) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !g.Busy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GateStatus is a snapshot of the gate for health reporting.
type GateStatus struct {
	Busy   bool      `json:"busy"`
	Holder string    `json:"holder,omitempty"`
	Since  time.Time `json:"since,omitempty"`
}

// Status returns the current gate state.
func (g *ImportGate) Status() GateStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return GateStatus{
		Busy:   len(g.slot) > 0,
		Holder: g.holder,
		Since:  g.since,
	}
}
