package shutdown

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestAddNilTask(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	q.Add(nil)

	err := q.Drain(testContext(t))
	if err != nil {
		t.Fatalf("expected nil after adding nil task; got %v", err)
	}
}

func TestLIFOOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue()

	var (
		orderMu sync.Mutex
		order   []int
	)

	makeTask := func(n int) Task {
		return func(ctx context.Context) error {
			orderMu.Lock()

			order = append(order, n)

			orderMu.Unlock()

			return nil
		}
	}

	for i := 1; i <= 3; i++ {
		q.Add(makeTask(i))
	}

	err := q.Drain(testContext(t))
	if err != nil {
		t.Fatalf("Drain error: %v", err)
	}

	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("order len mismatch: got %v, want %v", order, want)
	}

	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v, want %v", i, order, want)
		}
	}
}

func TestPanicRecoveryIncludedAndContinues(t *testing.T) {
	t.Parallel()

	q := NewQueue()

	var ranAfterPanic atomic.Bool

	q.Add(func(ctx context.Context) error { return nil })
	q.Add(func(ctx context.Context) error { panic("boom") })
	q.Add(func(ctx context.Context) error {
		ranAfterPanic.Store(true)

		return nil
	})

	err := q.Drain(testContext(t))
	if err == nil {
		t.Fatalf("expected aggregated error with panic; got nil")
	}

	if !strings.Contains(err.Error(), "panic in shutdown task: boom") {
		t.Fatalf("expected panic message in error; got: %q", err.Error())
	}

	if !ranAfterPanic.Load() {
		t.Fatalf("expected tasks after the panic to still run")
	}
}

func TestAggregatedErrors(t *testing.T) {
	t.Parallel()

	q := NewQueue()

	errA := errors.New("a failed")
	errB := errors.New("b failed")

	q.Add(func(ctx context.Context) error { return errA })
	q.Add(func(ctx context.Context) error { return errB })

	err := q.Drain(testContext(t))
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both task errors aggregated; got %v", err)
	}
}

func TestEarlyCancel(t *testing.T) {
	t.Parallel()

	q := NewQueue()

	var ran atomic.Int32

	q.Add(func(ctx context.Context) error {
		ran.Add(1)

		return nil
	})

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	err := q.Drain(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled; got %v", err)
	}

	if ran.Load() != 0 {
		t.Fatalf("expected no tasks to run after cancel; %d ran", ran.Load())
	}
}

func TestDrainIdempotent(t *testing.T) {
	t.Parallel()

	q := NewQueue()

	var ran atomic.Int32

	q.Add(func(ctx context.Context) error {
		ran.Add(1)

		return nil
	})

	for i := 0; i < 2; i++ {
		err := q.Drain(testContext(t))
		if err != nil {
			t.Fatalf("Drain error: %v", err)
		}
	}

	if ran.Load() != 1 {
		t.Fatalf("expected task to run exactly once; ran %d times", ran.Load())
	}

	// Adds after draining are dropped.
	q.Add(func(ctx context.Context) error {
		ran.Add(1)

		return nil
	})

	err := q.Drain(testContext(t))
	if err != nil {
		t.Fatalf("Drain error: %v", err)
	}

	if ran.Load() != 1 {
		t.Fatalf("expected late Add to be dropped; ran %d times", ran.Load())
	}
}
