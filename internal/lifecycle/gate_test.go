package lifecycle

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

// TestMemoryGate_FailFast verifies the second acquirer is rejected
// immediately while the first holder is unaffected.
func TestMemoryGate_FailFast(t *testing.T) {
	g := NewMemoryGate()
	ctx := context.Background()

	if err := g.TryAcquire(ctx); err != nil {
		t.Fatalf("first TryAcquire() error: %v", err)
	}

	if err := g.TryAcquire(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("second TryAcquire() = %v, want ErrBusy", err)
	}

	// The busy rejection must not have released the holder's slot.
	if err := g.TryAcquire(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("third TryAcquire() = %v, want ErrBusy", err)
	}

	g.Release(ctx)
	if err := g.TryAcquire(ctx); err != nil {
		t.Errorf("TryAcquire() after release = %v, want nil", err)
	}
}

func TestMemoryGate_CancelledContext(t *testing.T) {
	g := NewMemoryGate()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.TryAcquire(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("TryAcquire() = %v, want context.Canceled", err)
	}

	// A cancelled attempt must not leave the gate held.
	if err := g.TryAcquire(context.Background()); err != nil {
		t.Errorf("TryAcquire() after cancelled attempt = %v, want nil", err)
	}
}

// TestMemoryGate_SingleWinner races many goroutines at a free gate; exactly
// one must win.
func TestMemoryGate_SingleWinner(t *testing.T) {
	g := NewMemoryGate()
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.TryAcquire(ctx); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
}

func TestFileGate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.lock")
	g := NewFileGate(path)
	ctx := context.Background()

	if err := g.TryAcquire(ctx); err != nil {
		t.Fatalf("TryAcquire() error: %v", err)
	}

	other := NewFileGate(path)
	if err := other.TryAcquire(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent TryAcquire() = %v, want ErrBusy", err)
	}

	g.Release(ctx)
	if err := other.TryAcquire(ctx); err != nil {
		t.Errorf("TryAcquire() after release = %v, want nil", err)
	}
	other.Release(ctx)

	// Releasing an already-released gate is harmless.
	other.Release(ctx)
}
