package util

import "runtime"

// ReasonableShardCount picks a default number of affinities for callers that
// have no topology information: one per usable CPU, clamped to [1..256].
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	if p > 256 {
		p = 256
	}
	return p
}
