package prom

import (
	"testing"

	"github.com/IvanBrykalov/numacache/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAdapter_CountsTableTraffic(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg, "numacache", "test", nil)

	c := cache.MustNew(cache.Options[string, int]{
		Affinities:       []cache.Affinity{0, 1},
		CapacityPerShard: 1,
		Metrics:          m,
	})
	c.Insert(0, "a", 1)
	c.Get(0, "a")       // local hit
	c.Get(1, "a")       // remote hit, replicated to shard 1
	c.Get(1, "missing") // filter reject
	c.Insert(0, "b", 2) // evicts a from shard 0

	if got := testutil.ToFloat64(m.localHits); got != 1 {
		t.Fatalf("local hits = %v", got)
	}
	if got := testutil.ToFloat64(m.remoteHits); got != 1 {
		t.Fatalf("remote hits = %v", got)
	}
	if got := testutil.ToFloat64(m.misses); got != 1 {
		t.Fatalf("misses = %v", got)
	}
	if got := testutil.ToFloat64(m.filterRejects); got != 1 {
		t.Fatalf("filter rejects = %v", got)
	}
	if got := testutil.ToFloat64(m.evicts.WithLabelValues("0")); got != 1 {
		t.Fatalf("evictions on shard 0 = %v", got)
	}
	if got := testutil.ToFloat64(m.size.WithLabelValues("1")); got != 1 {
		t.Fatalf("size of shard 1 = %v", got)
	}
	if n := testutil.CollectAndCount(m.hits); n != 2 {
		t.Fatalf("hits series = %d, want local and remote", n)
	}
}

func TestAdapter_DuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	New(reg, "numacache", "dup", nil)
	defer func() {
		if recover() == nil {
			t.Fatal("registering the same metrics twice must panic")
		}
	}()
	New(reg, "numacache", "dup", nil)
}
