// Package memo provides a generic memoizing cache: it wraps an arbitrary
// computation and returns previously computed results for previously seen
// argument combinations, evicting the least recently used entry when the
// configured policy says the cache is full.
//
// Design
//
//   - Storage: a key→slot map plus a circular doubly linked recency list
//     laid out in an index-based arena with a fixed sentinel slot.
//     Lookup, promote and evict are all O(1); eviction reuses the LRU
//     slot instead of allocating.
//
//   - Keys: built by package memokey from an ordered argument list and an
//     optional keyword mapping. A typed engine caches f(3) and f(3.0)
//     separately; an untyped one gives them a single entry.
//
//   - Policies: the eviction trigger is pluggable via the policy package:
//     Disabled (pure passthrough), Unbounded (never evict),
//     FixedCapacity(n), and MemoryPressure(threshold, probe), which
//     consults an available-memory probe after every insertion.
//
//   - Concurrency: one mutex guards the map, list, counters and the
//     cached fullness verdict. The wrapped computation runs outside the
//     lock, so a slow call never blocks unrelated hits. Two goroutines
//     missing on the same key may both compute; the first to finish
//     inserts and the other returns its own result without inserting.
//     Duplicate computation is possible, duplicate storage is not.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     NoopMetrics is the default; metrics/prom exports to Prometheus.
//
// Basic usage
//
//	c := memo.New[string](memo.Options[string]{
//	    Policy: policy.FixedCapacity(1024),
//	})
//	v, err := c.GetOrCompute(ctx, memo.Call{Args: []any{userID}},
//	    func(ctx context.Context) (string, error) {
//	        return loadProfile(ctx, userID)
//	    })
//
// Or with the typed wrapper sugar:
//
//	lookup := memo.Wrap1(c, loadProfile)
//	v, err := lookup(ctx, userID)
//
// Memory-pressure policy
//
//	c := memo.New[[]byte](memo.Options[[]byte]{
//	    Policy: policy.MemoryPressure(512<<20, nil), // keep 512 MiB free
//	})
//
// Statistics
//
//	s := c.Stats() // hits, misses, capacity, size from one lock epoch
//	c.Clear()      // drop entries, reset counters
package memo
