package lifecycle

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned by a gate that is already held. Callers surface it
// immediately instead of queuing behind the in-flight operation.
var ErrBusy = errors.New("lifecycle: another operation is already in flight")

// Gate is a fail-fast mutual exclusion primitive: at most one holder, and a
// second acquire attempt is rejected, never queued. Implementations must
// make Release safe to call exactly once per successful TryAcquire,
// including on cancellation paths.
type Gate interface {
	TryAcquire(ctx context.Context) error
	Release(ctx context.Context)
}

var _ Gate = (*MemoryGate)(nil)

// MemoryGate serializes within a single process. Multi-instance deployments
// need RedisGate or FileGate instead; independent processes cannot see this
// flag.
type MemoryGate struct {
	mu   sync.Mutex
	held bool
}

func NewMemoryGate() *MemoryGate {
	return &MemoryGate{}
}

func (g *MemoryGate) TryAcquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.held {
		return ErrBusy
	}
	g.held = true
	return nil
}

func (g *MemoryGate) Release(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.held = false
}
