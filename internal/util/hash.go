// Package util contains internal helpers (hashing, sharding, padding).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Hash64 hashes common key types into 64 bits.
// Strings and byte slices/arrays go through xxhash; integer widths are run
// through a splitmix64 finalizer so that sequential keys spread across the
// whole word (the membership filter relies on both halves being well mixed).
// For other key types, either convert the key to string or supply a custom
// hasher via Options.Hasher. Panicking on unsupported types is deliberate to
// avoid silently poor hashing.
func Hash64[K comparable](k K) uint64 {
	switch v := any(k).(type) {
	case string:
		return xxhash.Sum64String(v)
	case []byte:
		return xxhash.Sum64(v)
	case [16]byte:
		return xxhash.Sum64(v[:])
	case [32]byte:
		return xxhash.Sum64(v[:])
	case [64]byte:
		return xxhash.Sum64(v[:])

	case uint8:
		return Mix64(uint64(v))
	case uint16:
		return Mix64(uint64(v))
	case uint32:
		return Mix64(uint64(v))
	case uint64:
		return Mix64(v)
	case uint:
		return Mix64(uint64(v))
	case uintptr:
		return Mix64(uint64(v))
	case int8:
		return Mix64(uint64(uint8(v)))
	case int16:
		return Mix64(uint64(uint16(v)))
	case int32:
		return Mix64(uint64(uint32(v)))
	case int64:
		return Mix64(uint64(v))
	case int:
		return Mix64(uint64(v))

	// Fallback for pseudo-keys via String() (avoid if you can).
	case fmt.Stringer:
		return xxhash.Sum64String(v.String())
	default:
		panic(fmt.Sprintf("util.Hash64: unsupported key type %T; convert key to string or provide a custom hasher", k))
	}
}

// Mix64 is the splitmix64 finalizer. It is a bijection on uint64.
func Mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
