package memo

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/IvanBrykalov/memocache/policy"
)

func TestWrap1(t *testing.T) {
	t.Parallel()

	var calls int64
	double := func(_ context.Context, n int) (int, error) {
		atomic.AddInt64(&calls, 1)
		return n * 2, nil
	}

	c := New[int](Options[int]{Policy: policy.FixedCapacity(8)})
	cached := Wrap1(c, double)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		v, err := cached(ctx, 21)
		if err != nil || v != 42 {
			t.Fatalf("cached(21): v=%d err=%v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("wrapped fn must run once, ran %d times", calls)
	}

	if v, _ := cached(ctx, 5); v != 10 {
		t.Fatalf("cached(5): got %d", v)
	}
	if calls != 2 {
		t.Fatalf("new argument must compute, ran %d times", calls)
	}
}

func TestWrap2(t *testing.T) {
	t.Parallel()

	var calls int64
	concat := func(_ context.Context, a string, n int) (string, error) {
		atomic.AddInt64(&calls, 1)
		return a, nil
	}

	c := New[string](Options[string]{Policy: policy.FixedCapacity(8)})
	cached := Wrap2(c, concat)

	ctx := context.Background()
	cached(ctx, "a", 1)
	cached(ctx, "a", 1) // hit
	cached(ctx, "a", 2) // distinct second argument
	if calls != 2 {
		t.Fatalf("fn must run twice, ran %d times", calls)
	}
}
