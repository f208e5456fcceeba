package singleflight

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestGroup_Coalesces(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	var calls atomic.Int32
	release := make(chan struct{})

	var eg errgroup.Group
	for i := 0; i < 16; i++ {
		eg.Go(func() error {
			v, err := g.Do(context.Background(), "k", func() (int, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			if err != nil {
				return err
			}
			if v != 42 {
				return errors.New("wrong value")
			}
			return nil
		})
	}
	// Let all callers join the flight before releasing the leader.
	for g.InFlight() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	close(release)

	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got < 1 || got > 16 {
		t.Fatalf("unexpected call count %d", got)
	}
	if g.InFlight() != 0 {
		t.Fatal("in-flight marker must be removed")
	}
}

func TestGroup_FollowerCancel(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	release := make(chan struct{})
	leaderDone := make(chan struct{})

	go func() {
		defer close(leaderDone)
		_, _ = g.Do(context.Background(), "k", func() (int, error) {
			<-release
			return 1, nil
		})
	}()
	for g.InFlight() == 0 {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Do(ctx, "k", func() (int, error) { return 2, nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("follower must observe ctx cancellation, got %v", err)
	}
	close(release)
	<-leaderDone
}

func TestGroup_PanicCleansUp(t *testing.T) {
	t.Parallel()

	var g Group[int, int]
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("leader must re-panic")
			}
		}()
		_, _ = g.Do(context.Background(), 1, func() (int, error) { panic("boom") })
	}()

	v, err := g.Do(context.Background(), 1, func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("group must be usable after a panic: v=%d err=%v", v, err)
	}
}
