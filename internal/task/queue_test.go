package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDrainRunsInOrder(t *testing.T) {
	q := New()
	var got []int
	for i := range 3 {
		if err := q.Post(func() { got = append(got, i) }); err != nil {
			t.Fatal(err)
		}
	}
	if n := q.Drain(); n != 3 {
		t.Errorf("Drain = %d, want 3", n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("order = %v", got)
		}
	}
}

func TestDrainRunsNestedPosts(t *testing.T) {
	q := New()
	ran := false
	_ = q.Post(func() {
		_ = q.Post(func() { ran = true })
	})
	if n := q.Drain(); n != 2 || !ran {
		t.Errorf("Drain = %d, ran = %v", n, ran)
	}
}

func TestRunOneWaits(t *testing.T) {
	q := New()
	done := make(chan struct{})
	var result string
	q.Go(func() func() {
		<-done
		return func() { result = "uploaded" }
	})
	if q.Pending() != 0 {
		t.Fatal("continuation posted before work finished")
	}
	close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.RunOne(ctx); err != nil {
		t.Fatal(err)
	}
	if result != "uploaded" {
		t.Errorf("result = %q", result)
	}
}

func TestRunOneHonorsContext(t *testing.T) {
	q := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := q.RunOne(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v", err)
	}
}

func TestSettle(t *testing.T) {
	q := New()
	var mu sync.Mutex
	count := 0
	for range 5 {
		q.Go(func() func() {
			time.Sleep(time.Millisecond)
			return func() {
				mu.Lock()
				count++
				mu.Unlock()
			}
		})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.Settle(ctx); err != nil {
		t.Fatal(err)
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
	if s := q.Stats(); s.Executed != 5 || s.InFlight != 0 || s.Pending != 0 {
		t.Errorf("stats = %s", s)
	}
}

func TestClosed(t *testing.T) {
	q := New()
	q.Close()
	if err := q.Post(func() {}); !errors.Is(err, ErrClosed) {
		t.Errorf("got %v", err)
	}
}

func TestPanicHandler(t *testing.T) {
	var recovered any
	q := New(WithPanicHandler(func(r any, _ []byte) { recovered = r }))
	_ = q.Post(func() { panic("boom") })
	after := false
	_ = q.Post(func() { after = true })
	q.Drain()
	if recovered != "boom" || !after {
		t.Errorf("recovered = %v, after = %v", recovered, after)
	}
	if q.Stats().Panicked != 1 {
		t.Error("panic not counted")
	}
}

func TestSettleWaitsForChainedWork(t *testing.T) {
	q := New()
	done := false
	q.Go(func() func() {
		return func() {
			q.Go(func() func() {
				time.Sleep(time.Millisecond)
				return func() { done = true }
			})
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.Settle(ctx); err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("chained continuation did not run")
	}
}

func TestSettleNilContinuation(t *testing.T) {
	q := New()
	q.Go(func() func() { return nil })
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.Settle(ctx); err != nil {
		t.Fatal(err)
	}
}
