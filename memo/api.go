package memo

import "context"

// Call carries the arguments of one invocation of the wrapped
// computation: an ordered positional list and an optional keyword
// mapping. All values must be of comparable types.
type Call struct {
	Args   []any
	Kwargs map[string]any
}

// ComputeFunc produces the value for a missing key. It always runs
// outside the cache lock, so a slow computation never blocks unrelated
// lookups — but racing callers missing on the same key may each run it.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// Stats is a snapshot of the engine counters, taken under a single lock
// acquisition so hits, misses and size belong to the same moment.
type Stats struct {
	Hits   uint64
	Misses uint64

	// Capacity is the entry limit, or negative when the cache is not
	// entry-bounded (unbounded and memory-pressure policies).
	Capacity int

	// Size is the number of resident entries.
	Size int
}

// Ratio returns the hit rate in [0, 1]; 0 when no calls were made.
func (s Stats) Ratio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache memoizes a computation keyed by its arguments.
// All methods are safe for concurrent use by multiple goroutines.
type Cache[V any] interface {
	// GetOrCompute returns the cached value for the call's arguments,
	// or runs fn, stores its result, and returns it. Errors from fn
	// propagate unchanged and leave the cache untouched.
	//
	// Two callers missing on the same key concurrently both run fn;
	// whichever finishes first inserts, the other returns its own
	// freshly computed result without inserting. Duplicate computation
	// is possible; duplicate storage is not.
	GetOrCompute(ctx context.Context, call Call, fn ComputeFunc[V]) (V, error)

	// Stats returns an internally consistent counter snapshot.
	Stats() Stats

	// Clear atomically drops all entries and resets all counters.
	Clear()
}
