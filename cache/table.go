package cache

import (
	"context"
	"fmt"

	"github.com/IvanBrykalov/numacache/filter"
	"github.com/IvanBrykalov/numacache/internal/singleflight"
)

// ShardTable is the cache engine: one SIEVE shard per affinity plus a shared
// membership filter. All methods are safe for concurrent use by multiple
// goroutines.
//
// A lookup first tries the caller's own shard. On a local miss the filter is
// consulted; only if it cannot rule the key out are the other shards scanned,
// in ascending index order. A remote hit is copied into the caller's shard
// (read-through replication) so the next lookup from that affinity stays local.
//
// Replicas are independent copies. Nothing keeps them in sync: an Insert on
// one affinity does not update copies held by others, and Remove is not atomic
// across shards.
type ShardTable[K comparable, V any] struct {
	shards []*shard[K, V]
	affs   []Affinity

	// dense means affs[i] == Affinity(i) for every i, so the token is the index.
	dense bool
	index map[Affinity]int

	filter *filter.Filter
	hash   func(K) uint64
	clone  func(V) V

	metrics Metrics
	loader  func(ctx context.Context, k K) (V, error)

	// singleflight group for coalescing concurrent loads in GetOrLoad.
	sf singleflight.Group[K, V]
}

// Get returns the value for k as seen from affinity a.
// It panics if a is not one of the affinities the table was built with.
func (t *ShardTable[K, V]) Get(a Affinity, k K) (V, bool) {
	li := t.indexOf(a)
	local := t.shards[li]

	// fast path: no interconnect traffic
	if v, ok := local.get(k); ok {
		t.metrics.LocalHit()
		return t.clone(v), true
	}

	var zero V
	if !t.filter.MayContain(t.hash(k)) {
		t.metrics.FilterReject()
		t.metrics.Miss()
		return zero, false
	}

	for i, s := range t.shards {
		if i == li {
			continue
		}
		if v, ok := s.get(k); ok {
			// A local write that raced this scan is newer than the remote copy.
			cur := local.promote(k, t.clone(v))
			t.metrics.RemoteHit()
			return t.clone(cur), true
		}
	}
	// filter false positive, or a key removed since its bits were set
	t.metrics.Miss()
	return zero, false
}

// Insert stores k→v in the shard of affinity a, evicting by SIEVE if that
// shard is full. Copies of k held by other shards are not touched.
// It panics if a is not one of the affinities the table was built with.
func (t *ShardTable[K, V]) Insert(a Affinity, k K, v V) {
	t.shards[t.indexOf(a)].insert(k, v)
	// Data first, then filter bits.
	t.filter.Add(t.hash(k))
}

// Remove deletes k from every shard, one shard lock at a time, and reports
// whether any shard held it. The membership filter keeps k's bits, so later
// misses for k cost one full scan.
func (t *ShardTable[K, V]) Remove(k K) bool {
	removed := false
	for _, s := range t.shards {
		if s.remove(k) {
			removed = true
		}
	}
	return removed
}

// GetOrLoad returns the value for k as seen from affinity a; on a miss it
// loads via Options.Loader and inserts the result into a's shard. Concurrent
// loads of the same key are coalesced regardless of the callers' affinities;
// every caller stores the loaded value in its own shard.
// If no Loader is configured, returns ErrNoLoader.
func (t *ShardTable[K, V]) GetOrLoad(ctx context.Context, a Affinity, k K) (V, error) {
	if v, ok := t.Get(a, k); ok {
		return v, nil
	}
	if t.loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	leader := false
	v, err := t.sf.Do(ctx, k, func() (V, error) {
		leader = true
		// double-check after flight join
		if v, ok := t.Get(a, k); ok {
			return v, nil
		}
		v, err := t.loader(ctx, k)
		if err == nil {
			// Publish before the flight ends so late callers hit instead of reloading.
			t.Insert(a, k, t.clone(v))
		}
		return v, err
	})
	if err != nil {
		var zero V
		return zero, err
	}
	if !leader {
		t.Insert(a, k, t.clone(v))
	}
	return t.clone(v), nil
}

// NumShards returns the number of shards (one per affinity).
func (t *ShardTable[K, V]) NumShards() int { return len(t.shards) }

// Affinities returns the configured affinities in scan order.
func (t *ShardTable[K, V]) Affinities() []Affinity {
	return append([]Affinity(nil), t.affs...)
}

// Len returns the number of resident entries across all shards.
// A key replicated into several shards is counted once per shard.
func (t *ShardTable[K, V]) Len() int {
	total := 0
	for _, s := range t.shards {
		total += s.len()
	}
	return total
}

// Stats returns a point-in-time snapshot of per-shard counters and filter
// occupancy. Shards are read one at a time, so the snapshot is not atomic.
func (t *ShardTable[K, V]) Stats() Stats {
	st := Stats{
		Shards:       make([]ShardStats, len(t.shards)),
		FilterBits:   t.filter.Bits(),
		FilterProbes: t.filter.Probes(),
	}
	for i, s := range t.shards {
		st.Shards[i] = s.stats()
	}
	st.FilterFillRatio = t.filter.FillRatio()
	st.FilterFalsePositiveRate = t.filter.EstimatedFalsePositiveRate()
	return st
}

// indexOf resolves an affinity token to its shard index.
func (t *ShardTable[K, V]) indexOf(a Affinity) int {
	if t.dense {
		if a >= 0 && int(a) < len(t.shards) {
			return int(a)
		}
	} else if i, ok := t.index[a]; ok {
		return i
	}
	panic(fmt.Sprintf("cache: unknown affinity %d (table built with %v)", a, t.affs))
}
