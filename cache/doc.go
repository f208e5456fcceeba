// Package cache provides a NUMA-aware, sharded in-memory cache with SIEVE
// eviction, a lock-free membership filter for negative lookups, and
// read-through replication of hot entries between shards.
//
// Design
//
//   - Affinities: the caller names the NUMA node (or core group) it runs on
//     with an Affinity token. Each configured affinity owns exactly one shard;
//     keys are not hashed to shards. A goroutine pinned to node 1 reads and
//     writes node 1's shard, so hits cost no cross-socket traffic.
//
//   - Storage: each shard keeps a map[K]int32 into a fixed arena of slots and
//     an index-linked SIEVE ring over the same slots. Shards are guarded by
//     their own RWMutex and padded so that no two shard locks share a cache
//     line. Capacity is fixed per shard for the table's lifetime.
//
//   - Eviction (SIEVE): a hit only sets the slot's visited flag. When a full
//     shard admits a new key, the hand sweeps forward clearing visited flags
//     until it reaches an unvisited slot, whose entry is evicted and whose
//     slot receives the new entry. One-hit wonders in a scan are evicted before
//     anything that was read twice.
//
//   - Membership filter: a Bloom filter shared by all shards remembers every
//     key ever inserted. A local miss for a key the filter has never seen
//     returns immediately without touching other shards. Filter bits are never
//     cleared, so removed keys keep costing one cross-shard scan per miss.
//
//   - Replication: a local miss that passes the filter scans the other shards
//     in configuration order. The first hit is copied (Options.Clone) into the
//     caller's shard. Copies are independent; there is no invalidation.
//
//   - Placement: with Options.Pinner set, each shard is allocated inside a
//     closure run pinned to its affinity so that first-touch page placement
//     puts the shard's memory on its own node. See package topology.
//
//   - GetOrLoad: coalesces concurrent loads for the same key using singleflight.
//     If Loader is nil, GetOrLoad returns ErrNoLoader.
//
//   - Metrics: Options.Metrics receives LocalHit/RemoteHit/Miss/FilterReject/
//     Evict/Size signals. NoopMetrics is the default; package metrics/prom
//     exports them to Prometheus.
//
// Basic usage
//
//	c, err := cache.New(cache.Options[string, []byte]{
//	    Affinities:       []cache.Affinity{0, 1},
//	    CapacityPerShard: 10_000,
//	})
//	if err != nil {
//	    // configuration error
//	}
//	c.Insert(0, "a", []byte("1"))
//	v, ok := c.Get(1, "a") // found on shard 0, now replicated to shard 1
//	c.Remove("a")          // removed from both shards
//
// Using an affinity the table was not built with is a programming error and
// panics.
//
// Thread-safety & complexity
//
// All methods on ShardTable are safe for concurrent use. Local hits and
// inserts are O(1) amortized; a filter-positive miss costs one read-locked
// map lookup per shard. Remove and cross-shard scans take one shard lock at a
// time and never hold two, so they cannot deadlock.
package cache
