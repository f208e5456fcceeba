package cache

import (
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"
)

// A mixed workload of concurrent Insert/Get/Remove from every affinity on
// random keys. Should pass under `-race` without detector reports.
func TestRace_Basic(t *testing.T) {
	const shards, capacity = 4, 512
	c := newTable(t, shards, capacity, nil)

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 5_000
	deadline := time.Now().Add(time.Second)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			a := Affinity(id % shards)
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				k := "k:" + strconv.Itoa(r.Intn(keyspace))
				switch r.Intn(100) {
				case 0, 1, 2, 3, 4: // ~5%: Remove
					c.Remove(k)
				case 5, 6, 7, 8, 9, 10, 11, 12, 13, 14: // ~10%: Insert
					c.Insert(a, k, id)
				default: // ~85%: Get
					c.Get(a, k)
				}
			}
		}(w)
	}
	wg.Wait()

	for i, s := range c.shards {
		if n := s.len(); n > capacity {
			t.Fatalf("shard %d over capacity: %d", i, n)
		}
	}
}

// Every key inserted by a writer must be visible (locally or by promotion)
// to readers on other affinities until it is evicted.
func TestRace_ReadThroughUnderContention(t *testing.T) {
	const shards = 4
	// Large enough that nothing is evicted.
	c := newTable(t, shards, 10_000, nil)

	const keys = 2_000
	for i := 0; i < keys; i++ {
		c.Insert(Affinity(i%shards), "k:"+strconv.Itoa(i), i)
	}

	var wg sync.WaitGroup
	wg.Add(shards)
	for s := 0; s < shards; s++ {
		go func(a Affinity) {
			defer wg.Done()
			for i := 0; i < keys; i++ {
				k := "k:" + strconv.Itoa(i)
				if v, ok := c.Get(a, k); !ok || v != i {
					t.Errorf("affinity %d: Get(%q) = %d, %v", a, k, v, ok)
					return
				}
			}
		}(Affinity(s))
	}
	wg.Wait()

	if c.Len() != keys*shards {
		t.Fatalf("Len = %d, want every key replicated to every shard (%d)", c.Len(), keys*shards)
	}
}
