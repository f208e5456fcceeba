//go:build !linux

package topology

import "runtime"

// runOn has no thread affinity API to call on this platform; fn runs
// unpinned and allocation falls back to the OS default placement.
func runOn(_ []int, fn func()) error {
	return call(fn)
}

// Allowed returns 0..NumCPU-1.
func Allowed() ([]int, error) {
	cpus := make([]int, runtime.NumCPU())
	for i := range cpus {
		cpus[i] = i
	}
	return cpus, nil
}
