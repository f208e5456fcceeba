package cache

import (
	"sync/atomic"
	"testing"
)

// countingMetrics records every hook call.
type countingMetrics struct {
	local, remote, miss, reject, evict atomic.Int64
}

func (m *countingMetrics) LocalHit()          { m.local.Add(1) }
func (m *countingMetrics) RemoteHit()         { m.remote.Add(1) }
func (m *countingMetrics) Miss()              { m.miss.Add(1) }
func (m *countingMetrics) FilterReject()      { m.reject.Add(1) }
func (m *countingMetrics) Evict(Affinity)     { m.evict.Add(1) }
func (m *countingMetrics) Size(Affinity, int) {}

var _ Metrics = (*countingMetrics)(nil)

const (
	affA Affinity = 0
	affB Affinity = 1
)

// newTable builds a string→int table over affinities 0..shards-1.
func newTable(t testing.TB, shards, capacity int, m Metrics) *ShardTable[string, int] {
	t.Helper()

	affs := make([]Affinity, shards)
	for i := range affs {
		affs[i] = Affinity(i)
	}
	c, err := New(Options[string, int]{
		Affinities:       affs,
		CapacityPerShard: capacity,
		Metrics:          m,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// touches returns hits+misses of the shard at index i; every shard lookup
// bumps exactly one of them.
func touches[K comparable, V any](c *ShardTable[K, V], i int) uint64 {
	st := c.shards[i].stats()
	return st.Hits + st.Misses
}

func mustGet(t *testing.T, c *ShardTable[string, int], a Affinity, k string, want int) {
	t.Helper()
	v, ok := c.Get(a, k)
	if !ok || v != want {
		t.Fatalf("Get(%d, %q) = %d, %v; want %d, true", a, k, v, ok, want)
	}
}

func mustMiss(t *testing.T, c *ShardTable[string, int], a Affinity, k string) {
	t.Helper()
	if v, ok := c.Get(a, k); ok {
		t.Fatalf("Get(%d, %q) = %d; want miss", a, k, v)
	}
}

// contains reports whether k is resident without touching its visited flag.
func (s *shard[K, V]) contains(k K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[k]
	return ok
}

// keys returns the resident keys in eviction-scan order starting at the hand.
func (s *shard[K, V]) keys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]K, 0, len(s.m))
	s.ring.walk(func(i int32) bool {
		out = append(out, s.entries[i].key)
		return true
	})
	return out
}

// walk calls fn for every occupied slot in hand order (the order an eviction
// sweep would visit them), stopping early if fn returns false.
func (r *ring) walk(fn func(i int32) bool) {
	if r.hand == nilSlot {
		return
	}
	i := r.hand
	for {
		if !fn(i) {
			return
		}
		i = r.next[i]
		if i == r.hand {
			return
		}
	}
}
