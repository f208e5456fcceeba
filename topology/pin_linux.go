//go:build linux

package topology

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// runOn runs fn on a fresh goroutine locked to its OS thread, with that
// thread's affinity mask set to cpus. The goroutine exits while still locked,
// so the runtime discards the thread and the mask never leaks to other work.
func runOn(cpus []int, fn func()) error {
	var set unix.CPUSet
	set.Zero()
	for _, c := range cpus {
		set.Set(c)
	}

	errc := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		if err := unix.SchedSetaffinity(0, &set); err != nil {
			errc <- err
			return
		}
		errc <- call(fn)
	}()
	return <-errc
}

// Allowed returns the CPUs the calling thread may run on.
func Allowed() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, err
	}
	cpus := make([]int, 0, set.Count())
	for c := 0; len(cpus) < set.Count(); c++ {
		if set.IsSet(c) {
			cpus = append(cpus, c)
		}
	}
	return cpus, nil
}
