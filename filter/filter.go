// Package filter implements a fixed-size, lock-free Bloom filter over 64-bit
// key hashes.
//
// Bits are only ever set. There is no removal: once a key has been added,
// MayContain reports true for it for the lifetime of the filter. Callers that
// delete keys elsewhere accept a slowly rising false-positive rate in
// exchange for a filter that never blocks and never needs reclamation.
package filter

import (
	"math"
	"math/bits"
	"sync/atomic"

	"github.com/IvanBrykalov/numacache/internal/util"
)

const (
	// DefaultBitsPerItem and DefaultProbes target ~1% false positives at the
	// expected item count.
	DefaultBitsPerItem = 10
	DefaultProbes      = 7

	minBits = 64
)

// Filter is a Bloom filter backed by an array of atomic words.
// All methods are safe for concurrent use and never block.
type Filter struct {
	words  []atomic.Uint64
	mask   uint64 // bit count - 1 (bit count is a power of two)
	probes uint64
}

// New returns a filter with at least nbits bits (rounded up to a power of
// two, minimum 64) probing k positions per key. k < 1 is treated as 1.
func New(nbits, k uint64) *Filter {
	if nbits < minBits {
		nbits = minBits
	}
	nbits = util.NextPow2(nbits)
	if k < 1 {
		k = 1
	}
	return &Filter{
		words:  make([]atomic.Uint64, nbits/64),
		mask:   nbits - 1,
		probes: k,
	}
}

// NewForItems sizes a filter for the expected number of items.
// Zero bitsPerItem or k fall back to the package defaults.
func NewForItems(expected, bitsPerItem, k uint64) *Filter {
	if bitsPerItem == 0 {
		bitsPerItem = DefaultBitsPerItem
	}
	if k == 0 {
		k = DefaultProbes
	}
	if expected == 0 {
		expected = 1
	}
	return New(expected*bitsPerItem, k)
}

// Add records the key hash h. It is idempotent.
func (f *Filter) Add(h uint64) {
	h1, h2 := split(h)
	for i := uint64(0); i < f.probes; i++ {
		idx := (h1 + i*h2) & f.mask
		w := &f.words[idx>>6]
		bit := uint64(1) << (idx & 63)
		// Skip the RMW when the bit is already set; keeps hot cache lines shared.
		if w.Load()&bit == 0 {
			w.Or(bit)
		}
	}
}

// MayContain reports false only if h was never added.
func (f *Filter) MayContain(h uint64) bool {
	h1, h2 := split(h)
	for i := uint64(0); i < f.probes; i++ {
		idx := (h1 + i*h2) & f.mask
		if f.words[idx>>6].Load()&(uint64(1)<<(idx&63)) == 0 {
			return false
		}
	}
	return true
}

// Bits returns the size of the bit array.
func (f *Filter) Bits() uint64 { return f.mask + 1 }

// Probes returns the number of bit positions per key.
func (f *Filter) Probes() uint64 { return f.probes }

// FillRatio returns the fraction of set bits. The value is a snapshot and may
// be stale by the time it is returned.
func (f *Filter) FillRatio() float64 {
	var set int
	for i := range f.words {
		set += bits.OnesCount64(f.words[i].Load())
	}
	return float64(set) / float64(f.Bits())
}

// EstimatedFalsePositiveRate derives the current false-positive probability
// from the fill ratio.
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	return math.Pow(f.FillRatio(), float64(f.probes))
}

// split derives the two Kirsch–Mitzenmacher base hashes. h2 is forced odd so
// that probes cycle through every position of the power-of-two table.
func split(h uint64) (h1, h2 uint64) {
	return h, util.Mix64(h^0x9e3779b97f4a7c15) | 1
}
