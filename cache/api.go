package cache

import "context"

// Cache is the capability interface of an affinity-routed cache backend.
// All methods are safe for concurrent use by multiple goroutines.
//
// ShardTable is the only implementation in this module; the interface lets
// callers swap in other backends (for tests, or a single-node variant)
// chosen at construction time.
type Cache[K comparable, V any] interface {
	// Get returns the value for k as seen from affinity a and a presence flag.
	// A hit in another affinity's shard is replicated into a's shard.
	Get(a Affinity, k K) (V, bool)

	// Insert stores k→v in a's shard, evicting by SIEVE when the shard is full.
	Insert(a Affinity, k K, v V)

	// Remove deletes k from every shard and returns true if any held it.
	Remove(k K) bool

	// NumShards returns the number of shards (one per configured affinity).
	NumShards() int

	// Len returns the total number of resident entries across all shards,
	// counting replicas once per shard.
	Len() int

	// GetOrLoad returns the value for k, loading it via Options.Loader on miss.
	// Concurrent loads for the same key are coalesced (singleflight).
	// If no Loader was configured, returns ErrNoLoader.
	GetOrLoad(ctx context.Context, a Affinity, k K) (V, error)
}

var _ Cache[string, int] = (*ShardTable[string, int])(nil)
