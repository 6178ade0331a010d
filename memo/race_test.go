package memo

import (
	"context"
	"math/rand"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/memocache/policy"
)

// A mixed workload of concurrent GetOrCompute/Stats/Clear on random keys.
// Should pass under `-race` without detector reports.
func TestRace_Mixed(t *testing.T) {
	ctx := context.Background()
	c := New[int](Options[int]{Policy: policy.FixedCapacity(512)})

	workers := 4 * runtime.GOMAXPROCS(0)
	deadline := time.Now().Add(2 * time.Second)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		id := w
		g.Go(func() error {
			r := rand.New(rand.NewSource(int64(id)*9973 + 1))
			for time.Now().Before(deadline) {
				switch r.Intn(100) {
				case 0: // rare full reset
					c.Clear()
				case 1, 2, 3, 4, 5:
					c.Stats()
				default:
					k := r.Intn(2048)
					v, err := c.GetOrCompute(ctx, call(k), func(context.Context) (int, error) {
						return k * 2, nil
					})
					if err != nil {
						return err
					}
					if v != k*2 {
						t.Errorf("key %d: got %d", k, v)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

// Racing misses on one key: every caller may compute, but only the first
// insert lands. The cache never stores more than one entry for the key
// and the counters stay coherent.
func TestRace_DuplicateComputeSingleInsert(t *testing.T) {
	ctx := context.Background()
	c := New[int64](Options[int64]{Policy: policy.FixedCapacity(16)})

	var computes int64
	const callers = 64

	start := make(chan struct{})
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			<-start
			_, err := c.GetOrCompute(ctx, call("hot"), func(context.Context) (int64, error) {
				n := atomic.AddInt64(&computes, 1)
				time.Sleep(time.Millisecond) // widen the race window
				return n, nil
			})
			return err
		})
	}
	close(start)
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	s := c.Stats()
	if s.Size != 1 {
		t.Fatalf("duplicate storage: size want 1, got %d", s.Size)
	}
	if s.Hits+s.Misses != callers {
		t.Fatalf("hits(%d)+misses(%d) must equal %d callers", s.Hits, s.Misses, callers)
	}
	if s.Misses < 1 {
		t.Fatal("at least one miss must be recorded")
	}
	// No coalescing is promised: computes may exceed 1, but every
	// computation that ran must be accounted as a miss.
	if got := atomic.LoadInt64(&computes); uint64(got) != s.Misses {
		t.Fatalf("computes (%d) must match misses (%d)", got, s.Misses)
	}

	// The stored value is whichever insert won; later callers must now hit.
	v, err := c.GetOrCompute(ctx, call("hot"), func(context.Context) (int64, error) {
		t.Error("settled key must not recompute")
		return -1, nil
	})
	if err != nil || v < 1 || v > atomic.LoadInt64(&computes) {
		t.Fatalf("settled value out of range: v=%d err=%v", v, err)
	}
}

// A slow computation must not block hits on other keys.
func TestRace_SlowComputeDoesNotBlockHits(t *testing.T) {
	ctx := context.Background()
	c := New[string](Options[string]{Policy: policy.FixedCapacity(16)})

	if _, err := c.GetOrCompute(ctx, call("fast"), func(context.Context) (string, error) {
		return "v", nil
	}); err != nil {
		t.Fatal(err)
	}

	release := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		_, err := c.GetOrCompute(ctx, call("slow"), func(context.Context) (string, error) {
			<-release
			return "slow", nil
		})
		return err
	})

	// While the slow computation is parked, hits must complete promptly.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			c.GetOrCompute(ctx, call("fast"), func(context.Context) (string, error) {
				return "v", nil
			})
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("hits blocked behind a slow computation")
	}

	close(release)
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
