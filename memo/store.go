package memo

import "github.com/IvanBrykalov/memocache/memokey"

// root is the arena index of the list sentinel. The sentinel is never
// evicted; root.prev is the most recently used entry, root.next the
// least recently used. An empty store links the sentinel to itself.
const root = int32(0)

// slot is one arena cell: an entry's key/value plus its position in the
// circular recency list. prev/next are arena indices, not pointers, so
// the list needs no per-node allocations or lifetime management.
type slot[V any] struct {
	key  memokey.Key
	val  V
	prev int32
	next int32
}

// store pairs a key→index map with an arena of slots threaded into a
// circular doubly linked recency list. The map owns entry data; the list
// only orders it. All operations are O(1). Callers must serialize access.
type store[V any] struct {
	m     map[memokey.Key]int32
	arena []slot[V]
	hint  int
}

func newStore[V any](hint int) *store[V] {
	s := &store[V]{
		m:     make(map[memokey.Key]int32, hint),
		arena: make([]slot[V], 1, 1+hint),
		hint:  hint,
	}
	s.arena[root].prev = root
	s.arena[root].next = root
	return s
}

func (s *store[V]) len() int { return len(s.m) }

func (s *store[V]) contains(k memokey.Key) bool {
	_, ok := s.m[k]
	return ok
}

// lookupAndPromote returns the value for k, moving its entry to the
// most-recent end of the list. A miss changes nothing.
func (s *store[V]) lookupAndPromote(k memokey.Key) (V, bool) {
	idx, ok := s.m[k]
	if !ok {
		var zero V
		return zero, false
	}
	s.unlink(idx)
	s.linkMRU(idx)
	return s.arena[idx].val, true
}

// insert adds a fresh entry at the most-recent end.
// The key must not already be present.
func (s *store[V]) insert(k memokey.Key, v V) {
	idx := int32(len(s.arena))
	s.arena = append(s.arena, slot[V]{key: k, val: v})
	s.linkMRU(idx)
	s.m[k] = idx
}

// evictReuse displaces the least recently used entry, reusing its slot
// for the new key/value instead of allocating.
//
// The displaced key and value are handed back only after the map and
// list are fully consistent again; user-visible release of the old pair
// (eviction callbacks, metrics) must happen strictly after this returns,
// never mid-mutation. The new key goes into the map last, once every
// link is already in place.
func (s *store[V]) evictReuse(k memokey.Key, v V) (memokey.Key, V) {
	idx := s.arena[root].next
	oldKey := s.arena[idx].key
	oldVal := s.arena[idx].val

	s.arena[idx].key = k
	s.arena[idx].val = v
	s.unlink(idx)
	s.linkMRU(idx)
	delete(s.m, oldKey)
	s.m[k] = idx

	return oldKey, oldVal
}

// reset empties the store, keeping the arena's backing array.
func (s *store[V]) reset() {
	var zero slot[V]
	for i := range s.arena {
		s.arena[i] = zero
	}
	s.arena = s.arena[:1]
	s.arena[root].prev = root
	s.arena[root].next = root
	s.m = make(map[memokey.Key]int32, s.hint)
}

func (s *store[V]) unlink(idx int32) {
	p := s.arena[idx].prev
	n := s.arena[idx].next
	s.arena[p].next = n
	s.arena[n].prev = p
}

func (s *store[V]) linkMRU(idx int32) {
	last := s.arena[root].prev
	s.arena[idx].prev = last
	s.arena[idx].next = root
	s.arena[last].next = idx
	s.arena[root].prev = idx
}
