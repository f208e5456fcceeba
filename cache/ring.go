package cache

import "sync/atomic"

// nilSlot marks "no slot" in ring links, the hand, and the free list.
const nilSlot int32 = -1

// ring is the SIEVE bookkeeping of one shard: a fixed arena of slots linked by
// index into a circle in insertion order, one visited flag per slot, and a
// hand that only moves forward.
//
// Slot i's successor next[i] is the slot the hand inspects after i. New slots
// are linked in just before the hand, so they are the last ones a sweep
// reaches.
//
// visited is written by readers holding only the shard's read lock, hence the
// atomic. Everything else is mutated under the write lock.
type ring struct {
	next    []int32
	prev    []int32
	visited []atomic.Bool

	hand int32 // nilSlot when empty
	free int32 // head of the free list, chained through next
	n    int
}

func newRing(capacity int) ring {
	r := ring{
		next:    make([]int32, capacity),
		prev:    make([]int32, capacity),
		visited: make([]atomic.Bool, capacity),
		hand:    nilSlot,
		free:    nilSlot,
	}
	// Build the free list back to front so slot 0 is handed out first.
	// This also writes every word of the index arrays.
	for i := capacity - 1; i >= 0; i-- {
		r.next[i] = r.free
		r.prev[i] = nilSlot
		r.free = int32(i)
	}
	return r
}

func (r *ring) len() int   { return r.n }
func (r *ring) cap() int   { return len(r.next) }
func (r *ring) full() bool { return r.n == len(r.next) }

// touch marks slot i as recently used. Safe under the read lock.
func (r *ring) touch(i int32) { r.visited[i].Store(true) }

// push takes a free slot and links it immediately before the hand with
// visited=false. The ring must not be full.
func (r *ring) push() int32 {
	i := r.free
	if i == nilSlot {
		panic("sieve: push on a full ring")
	}
	r.free = r.next[i]
	r.visited[i].Store(false)

	if r.hand == nilSlot {
		r.next[i], r.prev[i] = i, i
		r.hand = i
	} else {
		h := r.hand
		p := r.prev[h]
		r.next[p] = i
		r.prev[i] = p
		r.next[i] = h
		r.prev[h] = i
	}
	r.n++
	return i
}

// evict runs the SIEVE scan. Starting at the hand, visited slots are cleared
// and skipped; the first unvisited slot is returned as the victim. The victim
// keeps its ring position so the caller can store the new entry in it, and
// the hand is left just past it.
//
// Termination: the first sweep clears every flag it passes, so the second
// sweep must find a victim. Anything longer means the ring is corrupt.
func (r *ring) evict() int32 {
	if r.n == 0 {
		panic("sieve: evict on an empty ring")
	}
	h := r.hand
	for steps := 0; steps <= 2*r.n; steps++ {
		if r.visited[h].Load() {
			r.visited[h].Store(false)
			h = r.next[h]
			continue
		}
		r.hand = r.next[h]
		return h
	}
	panic("sieve: eviction scan found no candidate")
}

// remove unlinks slot i and returns it to the free list.
func (r *ring) remove(i int32) {
	if r.n == 1 {
		r.hand = nilSlot
	} else {
		p, nx := r.prev[i], r.next[i]
		r.next[p] = nx
		r.prev[nx] = p
		if r.hand == i {
			r.hand = nx
		}
	}
	r.visited[i].Store(false)
	r.prev[i] = nilSlot
	r.next[i] = r.free
	r.free = i
	r.n--
}
