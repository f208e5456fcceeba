// Package singleflight coalesces concurrent loads of the same key.
package singleflight

import (
	"context"
	"fmt"
	"sync"
)

// Group coalesces concurrent function calls for the same key K so that
// the supplied fn is executed at most once. Other concurrent callers
// wait for the shared result.
//
// Concurrency notes:
//   - The first caller for a given key becomes the leader and runs fn.
//   - Followers wait on c.done. Publishing (val, err) happens-before
//     close(c.done), so reads after <-done observe the final values.
//   - Cancelling ctx in a follower unblocks only that follower; it does
//     NOT cancel the leader's fn.
//   - If fn panics, followers receive an error and the leader re-panics.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
}

// Do runs fn once for the given key. Concurrent calls with the same key
// wait for the shared result. If ctx is cancelled in a follower, that
// follower returns ctx.Err() while the leader continues to run fn.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()

		select {
		case <-c.done:
			return c.val, c.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	g.run(key, c, fn)
	return c.val, c.err
}

// InFlight reports the number of keys currently being loaded.
func (g *Group[K, V]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}

// run executes fn outside the lock, publishes the result, and always removes
// the in-flight marker, even if fn panics.
func (g *Group[K, V]) run(key K, c *call[V], fn func() (V, error)) {
	normal := false
	defer func() {
		if !normal {
			c.err = fmt.Errorf("singleflight: load for %v panicked", key)
		}
		close(c.done)

		g.mu.Lock()
		delete(g.m, key)
		g.mu.Unlock()
	}()

	c.val, c.err = fn()
	normal = true
}
