package cache

import (
	"context"
	"log/slog"
)

// Affinity is an opaque token identifying a NUMA node or core group. Each
// configured affinity owns exactly one shard.
type Affinity int

// Pinner runs fn on an OS thread pinned to affinity a and returns once fn has
// completed. It is used only while shards are being allocated, so that the
// shard's memory is first touched on its own NUMA node.
type Pinner interface {
	RunPinned(a Affinity, fn func()) error
}

// PinnerFunc adapts an ordinary function to the Pinner interface.
type PinnerFunc func(a Affinity, fn func()) error

// RunPinned calls f(a, fn).
func (f PinnerFunc) RunPinned(a Affinity, fn func()) error { return f(a, fn) }

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	// LocalHit is a hit in the caller's own shard.
	LocalHit()
	// RemoteHit is a hit in another shard that was replicated locally.
	RemoteHit()
	// Miss is a lookup that found nothing, including filter false positives.
	Miss()
	// FilterReject is a miss answered by the membership filter alone.
	FilterReject()
	// Evict is called for every SIEVE eviction.
	Evict(a Affinity)
	// Size reports the resident entry count of one shard after a mutation.
	Size(a Affinity, entries int)
}

// Logger is the subset of *slog.Logger the cache uses.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// Options configures the cache. Zero values are safe for every field except
// Affinities and CapacityPerShard; defaults are applied in New():
//   - ExpectedItems <= 0   => CapacityPerShard * len(Affinities)
//   - FilterBitsPerItem 0  => 10
//   - FilterProbes 0       => 7
//   - nil Hasher           => built-in hash for strings, byte arrays, integers
//   - nil Clone            => plain Go assignment
//   - nil Metrics          => NoopMetrics
//   - nil Logger           => discard
type Options[K comparable, V any] struct {
	// Affinities lists one token per shard. Order fixes the cross-shard scan order.
	Affinities []Affinity

	// CapacityPerShard is the SIEVE capacity of every shard (entries).
	CapacityPerShard int

	// Pinner, if set, is invoked once per shard during New to allocate that
	// shard's storage on its own NUMA node.
	Pinner Pinner

	// Membership filter sizing.
	ExpectedItems     int
	FilterBitsPerItem int
	FilterProbes      int

	// Hasher overrides key hashing (required for key types the built-in hash
	// does not support).
	Hasher func(K) uint64

	// Clone produces the copy handed to a replica or to a caller on a hit.
	// Needed when V holds references (slices, maps, pointers) that must not
	// be shared between shards.
	Clone func(V) V

	// Loader fetches a value on cache miss. Used by GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)

	// OnEvict is called on eviction under the shard lock; keep callbacks lightweight.
	OnEvict func(a Affinity, k K, v V)

	Metrics Metrics
	Logger  Logger
}

func (o *Options[K, V]) applyDefaults() {
	if o.ExpectedItems <= 0 {
		o.ExpectedItems = o.CapacityPerShard * len(o.Affinities)
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}
