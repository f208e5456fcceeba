package cache

import (
	"fmt"
	"math"
)

type constError string

func (e constError) Error() string { return string(e) }

// Configuration errors returned by New. Returned errors wrap one of these;
// test with errors.Is.
const (
	ErrNoAffinities      = constError("cache: no affinities configured")
	ErrInvalidCapacity   = constError("cache: invalid capacity")
	ErrDuplicateAffinity = constError("cache: duplicate affinity")
	ErrInvalidFilter     = constError("cache: invalid filter sizing")
	ErrPinning           = constError("cache: pinned allocation failed")
)

// ErrNoLoader is returned by GetOrLoad when no Loader was configured in Options.
const ErrNoLoader = constError("cache: no Loader provided")

func capacityError(capacity int) error {
	return fmt.Errorf("%w: CapacityPerShard must be in [1, %d] but %d was requested",
		ErrInvalidCapacity, math.MaxInt32, capacity)
}

func duplicateAffinityError(a Affinity, first, second int) error {
	return fmt.Errorf("%w: %d appears at positions %d and %d",
		ErrDuplicateAffinity, a, first, second)
}

func filterError(field string, v int) error {
	return fmt.Errorf("%w: %s must be >= 0 but %d was requested", ErrInvalidFilter, field, v)
}

func pinningError(a Affinity, err error) error {
	if err == nil {
		return fmt.Errorf("%w: pinner for affinity %d returned without running the allocation",
			ErrPinning, a)
	}
	return fmt.Errorf("%w: affinity %d: %w", ErrPinning, a, err)
}
