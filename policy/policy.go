// Package policy defines when a memoizing cache must evict.
//
// A Policy is chosen once, at cache construction; the engine never
// re-selects a strategy per call. The policy only answers "is the cache
// full" — recency bookkeeping and the eviction itself belong to the cache.
package policy

import "github.com/IvanBrykalov/memocache/memprobe"

// Probe reports currently available system memory in bytes.
// It must be safe to call while the cache lock is held.
type Probe func() (uint64, error)

// Policy decides whether the next insertion must displace the least
// recently used entry. The verdict is meant to be queried immediately
// after an insertion, never before: a fixed-capacity cache is allowed to
// reach exactly its capacity, and only the insertion after that evicts.
type Policy interface {
	// Full reports whether the cache must evict before the next
	// insertion. size is the current entry count; memory-based policies
	// ignore it entirely.
	Full(size int) bool

	// Capacity returns the entry limit, or a negative value when the
	// policy does not bound the entry count.
	Capacity() int

	// Admits reports whether the cache stores entries at all.
	Admits() bool
}

// Disabled returns a policy under which nothing is ever cached. Every
// call still runs the computation and counts as a miss.
func Disabled() Policy { return disabled{} }

type disabled struct{}

func (disabled) Full(int) bool { return true }
func (disabled) Capacity() int { return 0 }
func (disabled) Admits() bool  { return false }

// Unbounded returns a policy that never evicts; the cache grows without
// bound.
func Unbounded() Policy { return unbounded{} }

type unbounded struct{}

func (unbounded) Full(int) bool { return false }
func (unbounded) Capacity() int { return -1 }
func (unbounded) Admits() bool  { return true }

// FixedCapacity returns a policy that holds at most n entries.
// n <= 0 degrades to Disabled.
func FixedCapacity(n int) Policy {
	if n <= 0 {
		return Disabled()
	}
	return fixed(n)
}

type fixed int

func (f fixed) Full(size int) bool { return size >= int(f) }
func (f fixed) Capacity() int      { return int(f) }
func (f fixed) Admits() bool       { return true }

// MemoryPressure returns a policy that considers the cache full whenever
// the probe reports fewer than threshold bytes of available memory. The
// probe is consulted fresh after every insertion, so the entry count is
// structurally unbounded and can spike between probe readings.
//
// A nil probe defaults to memprobe.Available. Probe failures read as
// "not full": an unavailable probe must not make the cache unusable.
func MemoryPressure(threshold uint64, probe Probe) Policy {
	if probe == nil {
		probe = memprobe.Available
	}
	return &memoryPressure{threshold: threshold, probe: probe}
}

type memoryPressure struct {
	threshold uint64
	probe     Probe
}

func (p *memoryPressure) Full(int) bool {
	avail, err := p.probe()
	if err != nil {
		return false
	}
	return avail < p.threshold
}

func (p *memoryPressure) Capacity() int { return -1 }
func (p *memoryPressure) Admits() bool  { return true }
