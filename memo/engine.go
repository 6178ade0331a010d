package memo

import (
	"context"
	"sync"

	"github.com/IvanBrykalov/memocache/internal/util"
	"github.com/IvanBrykalov/memocache/memokey"
	"github.com/IvanBrykalov/memocache/policy"
)

// defaultCapacity is used when Options.Policy is nil.
const defaultCapacity = 128

// engine is a single-lock memoizing cache: a key→slot map plus a
// circular recency list, guarded by one mutex. The mutex protects
// bookkeeping only; the wrapped computation always runs outside it.
type engine[V any] struct {
	kb  memokey.Builder
	pol policy.Policy
	opt Options[V]

	// ---- guarded by mu ----
	mu     sync.Mutex
	st     *store[V]
	full   bool // policy verdict cached from the previous insertion
	hits   uint64
	misses uint64
}

// New constructs a cache engine with the provided Options.
// Defaults:
//   - nil Policy  -> FixedCapacity(128)
//   - nil Metrics -> NoopMetrics
func New[V any](opt Options[V]) Cache[V] {
	if opt.Policy == nil {
		opt.Policy = policy.FixedCapacity(defaultCapacity)
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}

	// Round the arena up to a power of two so bounded engines allocate
	// their backing array once. Unbounded engines start small and grow.
	hint := 64
	if c := opt.Policy.Capacity(); c > 0 {
		hint = int(util.NextPow2(uint64(c)))
	}

	return &engine[V]{
		kb:  memokey.NewBuilder(opt.Typed),
		pol: opt.Policy,
		opt: opt,
		st:  newStore[V](hint),
	}
}

// GetOrCompute implements Cache.
func (e *engine[V]) GetOrCompute(ctx context.Context, call Call, fn ComputeFunc[V]) (V, error) {
	var zero V

	if !e.pol.Admits() {
		// Caching disabled: no key, no store, just a statistics update
		// after a successful call.
		v, err := fn(ctx)
		if err != nil {
			return zero, err
		}
		e.mu.Lock()
		e.misses++
		e.mu.Unlock()
		e.opt.Metrics.Miss()
		return v, nil
	}

	k, err := e.kb.Build(call.Args, call.Kwargs)
	if err != nil {
		return zero, err
	}

	e.mu.Lock()
	if v, ok := e.st.lookupAndPromote(k); ok {
		e.hits++
		e.mu.Unlock()
		e.opt.Metrics.Hit()
		return v, nil
	}
	e.mu.Unlock()

	// Miss: run the computation without holding the lock. A failure
	// propagates unchanged and leaves counters and store untouched.
	v, err := fn(ctx)
	if err != nil {
		return zero, err
	}

	var (
		evicted    bool
		displacedK memokey.Key
		displacedV V
	)
	e.mu.Lock()
	switch {
	case e.st.contains(k):
		// A racing caller inserted this key while we were computing.
		// Its insert stands; this caller returns its own result.
	case e.full:
		displacedK, displacedV = e.st.evictReuse(k, v)
		evicted = true
		e.full = e.pol.Full(e.st.len())
	default:
		e.st.insert(k, v)
		e.full = e.pol.Full(e.st.len())
	}
	e.misses++
	size := e.st.len()
	e.mu.Unlock()

	e.opt.Metrics.Miss()
	e.opt.Metrics.Size(size)
	if evicted {
		e.opt.Metrics.Evict()
		// The store is consistent again; only now may the displaced
		// pair reach user code.
		if cb := e.opt.OnEvict; cb != nil {
			cb(displacedK, displacedV)
		}
	}
	return v, nil
}

// Stats implements Cache. The snapshot is taken under the mutation lock,
// so hits, misses and size never mix different epochs.
func (e *engine[V]) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Hits:     e.hits,
		Misses:   e.misses,
		Capacity: e.pol.Capacity(),
		Size:     e.st.len(),
	}
}

// Clear implements Cache.
func (e *engine[V]) Clear() {
	e.mu.Lock()
	e.st.reset()
	e.full = false
	e.hits, e.misses = 0, 0
	e.mu.Unlock()
	e.opt.Metrics.Size(0)
}
