// Package window provides fixed-capacity sample windows: a circular buffer
// plus the two baseline-tracking modes built on it (one-shot characterization
// and continuous moving average).
package window

// Ring is a fixed-capacity circular buffer of float64 samples. Once full,
// each push overwrites the oldest slot. The zero value is not usable; use
// NewRing.
type Ring struct {
	values   []float64
	capacity int
	head     int // next write position
	size     int // current number of stored samples
}

// NewRing creates a ring buffer with the given capacity. Capacity must be
// at least 1; the caller validates configuration before construction.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{
		values:   make([]float64, capacity),
		capacity: capacity,
	}
}

// Push stores a sample, overwriting the oldest when the buffer is full.
func (r *Ring) Push(v float64) {
	r.values[r.head] = v
	r.head = (r.head + 1) % r.capacity
	if r.size < r.capacity {
		r.size++
	}
}

// Size returns the current number of stored samples.
func (r *Ring) Size() int { return r.size }

// Capacity returns the fixed capacity.
func (r *Ring) Capacity() int { return r.capacity }

// Full reports whether the buffer holds capacity samples.
func (r *Ring) Full() bool { return r.size == r.capacity }

// Values returns the stored samples from oldest to newest. Returns nil when
// empty.
func (r *Ring) Values() []float64 {
	if r.size == 0 {
		return nil
	}
	out := make([]float64, r.size)
	for i := 0; i < r.size; i++ {
		idx := (r.head - r.size + i + r.capacity) % r.capacity
		out[i] = r.values[idx]
	}
	return out
}

// Clear removes all samples.
func (r *Ring) Clear() {
	r.head = 0
	r.size = 0
}
