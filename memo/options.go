package memo

import (
	"github.com/IvanBrykalov/memocache/memokey"
	"github.com/IvanBrykalov/memocache/policy"
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict()
	Size(entries int)
}

// Options configures a cache engine. Zero values are safe; defaults are
// applied in New():
//   - nil Policy  => policy.FixedCapacity(128)
//   - nil Metrics => NoopMetrics
type Options[V any] struct {
	// Policy selects the eviction trigger: Disabled, Unbounded,
	// FixedCapacity or MemoryPressure. It is bound once at construction.
	Policy policy.Policy

	// Typed gives argument values of different types distinct entries,
	// so f(3) and f(3.0) are cached separately.
	Typed bool

	// OnEvict is called with the displaced key and value after an
	// eviction, once the lock has been released. It may call back into
	// the cache.
	OnEvict func(k memokey.Key, v V)

	// Metrics receives Hit/Miss/Evict/Size signals.
	Metrics Metrics
}
