package cache

// ShardStats is a snapshot of one shard. Hits and Misses count every lookup
// that reached the shard, including remote scans on behalf of other affinities.
type ShardStats struct {
	Affinity  Affinity
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Stats is a snapshot of the whole table.
type Stats struct {
	Shards []ShardStats

	FilterBits              uint64
	FilterProbes            uint64
	FilterFillRatio         float64
	FilterFalsePositiveRate float64
}

// Len returns the total number of resident entries in the snapshot.
func (s Stats) Len() int {
	n := 0
	for _, sh := range s.Shards {
		n += sh.Len
	}
	return n
}
