package cache

import (
	"math"

	"github.com/IvanBrykalov/numacache/filter"
	"github.com/IvanBrykalov/numacache/internal/util"
)

// New validates opt and builds a ShardTable with one shard per affinity.
// If opt.Pinner is set it is called once per shard, synchronously and in
// affinity order, with the closure that allocates that shard.
//
// All errors wrap one of the configuration sentinels (ErrNoAffinities,
// ErrInvalidCapacity, ErrDuplicateAffinity, ErrInvalidFilter, ErrPinning).
// On error no table is returned.
func New[K comparable, V any](opt Options[K, V]) (*ShardTable[K, V], error) {
	index, err := opt.validate()
	if err != nil {
		return nil, err
	}
	opt.applyDefaults()

	shards := make([]*shard[K, V], len(opt.Affinities))
	for i, a := range opt.Affinities {
		alloc := func() { shards[i] = newShard[K, V](a, opt.CapacityPerShard, &opt) }
		if opt.Pinner == nil {
			alloc()
		} else if err := opt.Pinner.RunPinned(a, alloc); err != nil || shards[i] == nil {
			return nil, pinningError(a, err)
		}
		opt.Logger.Debug("shard allocated",
			"affinity", a, "capacity", opt.CapacityPerShard, "pinned", opt.Pinner != nil)
	}

	flt := filter.NewForItems(uint64(opt.ExpectedItems),
		uint64(opt.FilterBitsPerItem), uint64(opt.FilterProbes))

	t := &ShardTable[K, V]{
		shards:  shards,
		affs:    append([]Affinity(nil), opt.Affinities...),
		dense:   isDense(opt.Affinities),
		index:   index,
		filter:  flt,
		hash:    opt.Hasher,
		clone:   opt.Clone,
		metrics: opt.Metrics,
		loader:  opt.Loader,
	}
	if t.hash == nil {
		t.hash = util.Hash64[K]
	}
	if t.clone == nil {
		t.clone = func(v V) V { return v }
	}

	opt.Logger.Info("shard table built",
		"shards", len(shards),
		"capacity_per_shard", opt.CapacityPerShard,
		"filter_bits", flt.Bits(),
		"filter_probes", flt.Probes())
	return t, nil
}

// MustNew is like New but panics on configuration errors.
func MustNew[K comparable, V any](opt Options[K, V]) *ShardTable[K, V] {
	t, err := New(opt)
	if err != nil {
		panic(err)
	}
	return t
}

// validate checks the configuration and returns the affinity→index map.
func (o *Options[K, V]) validate() (map[Affinity]int, error) {
	if len(o.Affinities) == 0 {
		return nil, ErrNoAffinities
	}
	// Arena slots are addressed by int32.
	if o.CapacityPerShard < 1 || o.CapacityPerShard > math.MaxInt32 {
		return nil, capacityError(o.CapacityPerShard)
	}
	if o.FilterBitsPerItem < 0 {
		return nil, filterError("FilterBitsPerItem", o.FilterBitsPerItem)
	}
	if o.FilterProbes < 0 {
		return nil, filterError("FilterProbes", o.FilterProbes)
	}

	index := make(map[Affinity]int, len(o.Affinities))
	for i, a := range o.Affinities {
		if j, dup := index[a]; dup {
			return nil, duplicateAffinityError(a, j, i)
		}
		index[a] = i
	}
	return index, nil
}

func isDense(affs []Affinity) bool {
	for i, a := range affs {
		if a != Affinity(i) {
			return false
		}
	}
	return true
}
