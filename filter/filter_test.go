package filter

import (
	"sync"
	"testing"

	"github.com/IvanBrykalov/numacache/internal/util"
)

func TestFilter_NoFalseNegatives(t *testing.T) {
	t.Parallel()

	f := NewForItems(10_000, 0, 0)
	for i := 0; i < 10_000; i++ {
		f.Add(util.Hash64(i))
	}
	for i := 0; i < 10_000; i++ {
		if !f.MayContain(util.Hash64(i)) {
			t.Fatalf("false negative for %d", i)
		}
	}
}

func TestFilter_EmptyRejectsEverything(t *testing.T) {
	t.Parallel()

	f := New(1024, 7)
	for i := 0; i < 1000; i++ {
		if f.MayContain(util.Hash64(i)) {
			t.Fatalf("empty filter claimed %d", i)
		}
	}
	if r := f.FillRatio(); r != 0 {
		t.Fatalf("fill ratio of empty filter = %v", r)
	}
}

// With the default sizing the observed false-positive rate stays in the
// neighbourhood of 1%. The bound is loose to keep the test deterministic
// across hash changes.
func TestFilter_FalsePositiveRate(t *testing.T) {
	t.Parallel()

	const n = 20_000
	f := NewForItems(n, DefaultBitsPerItem, DefaultProbes)
	for i := 0; i < n; i++ {
		f.Add(util.Hash64(i))
	}
	fp := 0
	for i := n; i < 2*n; i++ {
		if f.MayContain(util.Hash64(i)) {
			fp++
		}
	}
	if rate := float64(fp) / n; rate > 0.03 {
		t.Fatalf("false-positive rate %.4f too high", rate)
	}
	if est := f.EstimatedFalsePositiveRate(); est <= 0 || est > 0.03 {
		t.Fatalf("estimated rate %.4f out of range", est)
	}
}

func TestFilter_Sizing(t *testing.T) {
	t.Parallel()

	if b := New(0, 0).Bits(); b != 64 {
		t.Fatalf("minimum size = %d, want 64", b)
	}
	f := New(1000, 0)
	if f.Bits() != 1024 {
		t.Fatalf("bits = %d, want 1024", f.Bits())
	}
	if f.Probes() != 1 {
		t.Fatalf("probes = %d, want 1", f.Probes())
	}
	if b := NewForItems(100, 0, 0).Bits(); b != 1024 {
		t.Fatalf("default sizing for 100 items = %d bits, want 1024", b)
	}
}

// Concurrent adders must never lose bits. Run with -race.
func TestFilter_ConcurrentAdd(t *testing.T) {
	t.Parallel()

	f := New(1<<16, 5)
	const workers, per = 8, 2_000

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < per; i++ {
				f.Add(util.Hash64(id*per + i))
				f.MayContain(util.Hash64(i))
			}
		}(w)
	}
	wg.Wait()

	for i := 0; i < workers*per; i++ {
		if !f.MayContain(util.Hash64(i)) {
			t.Fatalf("lost bits for %d", i)
		}
	}
}
