package cache

import (
	"sync"

	"github.com/IvanBrykalov/numacache/internal/util"
)

// entry is one arena slot's payload. Its ring bookkeeping (links, visited)
// lives in the shard's ring under the same index.
type entry[K comparable, V any] struct {
	key K
	val V
}

// shard is an independent partition of the cache with its own lock, map, and
// SIEVE ring. Shards never share a cache line: the lock and its guarded
// headers sit between two pads, and the hot counters are padded individually.
type shard[K comparable, V any] struct {
	_ util.CacheLinePad

	// ---- guarded by mu ----
	mu      sync.RWMutex
	m       map[K]int32 // key -> arena slot
	entries []entry[K, V]
	ring    ring

	aff     Affinity
	onEvict func(a Affinity, k K, v V)
	metrics Metrics

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicUint64
	misses util.PaddedAtomicUint64
	evicts util.PaddedAtomicUint64
}

// newShard allocates a shard with a fixed arena of capacity slots.
// When called under a Pinner, every word of the arena is written here so the
// OS places the pages on the pinned node.
func newShard[K comparable, V any](a Affinity, capacity int, opt *Options[K, V]) *shard[K, V] {
	s := &shard[K, V]{
		m:       make(map[K]int32, capacity),
		entries: make([]entry[K, V], capacity),
		ring:    newRing(capacity),
		aff:     a,
		onEvict: opt.OnEvict,
		metrics: opt.Metrics,
	}
	var zero entry[K, V]
	for i := range s.entries {
		s.entries[i] = zero
	}
	return s
}

// get returns the value for k and marks its slot visited. The hand is untouched.
func (s *shard[K, V]) get(k K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.m[k]
	if !ok {
		s.misses.Add(1)
		var zero V
		return zero, false
	}
	s.ring.touch(i)
	s.hits.Add(1)
	return s.entries[i].val, true
}

// insert stores k→v. An existing key is updated in place (its visited flag and
// ring position are kept). A new key takes a free slot, or, when the shard is
// full, the slot of the SIEVE victim. Reports whether an entry was evicted.
func (s *shard[K, V]) insert(k K, v V) (evicted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.m[k]; ok {
		s.entries[i].val = v
		return false
	}
	return s.add(k, v)
}

// promote stores a replica of k unless the shard already holds k, in which
// case the resident value wins and is marked visited. Returns the value the
// shard holds for k afterwards.
func (s *shard[K, V]) promote(k K, v V) V {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.m[k]; ok {
		s.ring.touch(i)
		return s.entries[i].val
	}
	s.add(k, v)
	return v
}

// add places a key that is not resident. Caller holds mu.
func (s *shard[K, V]) add(k K, v V) (evicted bool) {
	var i int32
	if s.ring.full() {
		i = s.ring.evict()
		victim := s.entries[i]
		delete(s.m, victim.key)
		s.evicts.Add(1)
		s.metrics.Evict(s.aff)
		if s.onEvict != nil {
			s.onEvict(s.aff, victim.key, victim.val)
		}
		evicted = true
	} else {
		i = s.ring.push()
	}

	s.entries[i] = entry[K, V]{key: k, val: v}
	s.m[k] = i
	s.metrics.Size(s.aff, len(s.m))
	return evicted
}

// remove deletes k if present and returns true on success.
func (s *shard[K, V]) remove(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.m[k]
	if !ok {
		return false
	}
	delete(s.m, k)
	s.ring.remove(i)
	s.entries[i] = entry[K, V]{}
	// Explicit Remove is not counted as an eviction.
	s.metrics.Size(s.aff, len(s.m))
	return true
}

// len returns the number of resident entries in this shard.
func (s *shard[K, V]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *shard[K, V]) stats() ShardStats {
	s.mu.RLock()
	n, c := len(s.m), s.ring.cap()
	s.mu.RUnlock()
	return ShardStats{
		Affinity:  s.aff,
		Len:       n,
		Capacity:  c,
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evicts.Load(),
	}
}
