package ocp

import (
	"fmt"
	"math"
)

// Box is an axis-aligned bounding box. Bounds may be infinite.
type Box struct {
	low  []float64
	high []float64
}

func NewBox(low, high []float64) (*Box, error) {
	if len(low) != len(high) {
		return nil, fmt.Errorf("%w: low has %d entries, high has %d", ErrBadBounds, len(low), len(high))
	}
	for i := range low {
		if math.IsNaN(low[i]) || math.IsNaN(high[i]) {
			return nil, fmt.Errorf("%w: NaN bound at index %d", ErrBadBounds, i)
		}
		if low[i] > high[i] {
			return nil, fmt.Errorf("%w: low[%d]=%g exceeds high[%d]=%g", ErrBadBounds, i, low[i], i, high[i])
		}
	}
	b := &Box{low: make([]float64, len(low)), high: make([]float64, len(high))}
	copy(b.low, low)
	copy(b.high, high)
	return b, nil
}

// Unbounded returns an n-dimensional box with infinite extent.
func Unbounded(n int) *Box {
	low := make([]float64, n)
	high := make([]float64, n)
	for i := 0; i < n; i++ {
		low[i] = math.Inf(-1)
		high[i] = math.Inf(1)
	}
	b, _ := NewBox(low, high)
	return b
}

func (b *Box) Dim() int { return len(b.low) }

func (b *Box) Bounds(i int) (lo, hi float64) { return b.low[i], b.high[i] }

// Clip returns a copy of v clamped componentwise into the bounds. The input
// is never mutated; NaN entries pass through unchanged. The vector must match
// the box dimension; a mismatch is a programming error.
func (b *Box) Clip(v []float64) []float64 {
	if len(v) != len(b.low) {
		panic(fmt.Sprintf("ocp: clipping %d entries into a %d-dimensional box", len(v), len(b.low)))
	}
	out := make([]float64, len(v))
	for i := range v {
		switch {
		case v[i] < b.low[i]:
			out[i] = b.low[i]
		case v[i] > b.high[i]:
			out[i] = b.high[i]
		default:
			out[i] = v[i]
		}
	}
	return out
}

func (b *Box) Contains(v []float64) bool {
	if len(v) != len(b.low) {
		return false
	}
	for i := range v {
		if v[i] < b.low[i] || v[i] > b.high[i] {
			return false
		}
	}
	return true
}
