package atomic_float

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 holds a float64 as its bit pattern so that a single writer (the learner)
// and any number of readers (views) can share a value table without a lock.
// The zero value holds 0.0.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

// AtomicRead returns the current value.
func (af *AtomicFloat64) AtomicRead() float64 {
	return math.Float64frombits(af.bits.Load())
}

// AtomicSet stores val unconditionally.
func (af *AtomicFloat64) AtomicSet(val float64) {
	af.bits.Store(math.Float64bits(val))
}

// AtomicUpdate applies fn to the current value and stores the result, retrying until no
// other writer interleaves. It returns the stored value.
func (af *AtomicFloat64) AtomicUpdate(fn func(old float64) float64) float64 {
	for {
		old := af.bits.Load()
		newVal := fn(math.Float64frombits(old))
		if af.bits.CompareAndSwap(old, math.Float64bits(newVal)) {
			return newVal
		}
	}
}
