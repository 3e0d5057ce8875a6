// Copyright (c) 2022 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package ring implements a fixed-capacity circular buffer of scalar values.
// The buffer starts empty, fills up to capacity, then overwrites the oldest
// value on every push, reporting it to the caller.
package ring

import (
	"errors"
	"fmt"
)

// ErrInvalidCapacity is returned when constructing a buffer with capacity
// less than one.
var ErrInvalidCapacity = errors.New("ring: capacity must be at least one")

// Buffer is a circular buffer holding the most recent values pushed into it.
// It is not safe for concurrent use.
type Buffer struct {
	// cursor is the next slot to be written.
	cursor int
	// capacity is the fixed number of slots.
	capacity int
	// filled is set once the buffer has wrapped at least once.
	filled bool
	// data is the backing storage.
	data []float64
}

// NewBuffer creates a buffer with the given capacity.
func NewBuffer(capacity int) (*Buffer, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &Buffer{
		capacity: capacity,
		data:     make([]float64, capacity),
	}, nil
}

// Size returns the number of live values, capacity once the buffer
// has wrapped and the number of pushes before that.
func (b *Buffer) Size() int {
	if b.filled {
		return b.capacity
	}
	return b.cursor
}

// Capacity returns the fixed capacity.
func (b *Buffer) Capacity() int { return b.capacity }

// Filled returns true once the buffer has wrapped at least once.
func (b *Buffer) Filled() bool { return b.filled }

// Push inserts x, overwriting the oldest value once the buffer has wrapped.
// It returns the overwritten value and true, or zero and false while the
// buffer is still filling.
func (b *Buffer) Push(x float64) (float64, bool) {
	var (
		evicted  float64
		didEvict bool
	)
	if b.filled {
		evicted = b.data[b.cursor]
		didEvict = true
	}

	b.data[b.cursor] = x

	if b.cursor == b.capacity-1 {
		b.cursor = 0
		b.filled = true
	} else {
		b.cursor++
	}

	return evicted, didEvict
}

// Get returns the i-th oldest live value (0 is the oldest). The second
// return value is false when i is out of range.
func (b *Buffer) Get(i int) (float64, bool) {
	if i < 0 || i >= b.Size() {
		return 0, false
	}
	if !b.filled {
		return b.data[i], true
	}
	return b.data[(b.cursor+i)%b.capacity], true
}

// Each calls fn for every live value in backing-slot order. The order is
// deterministic but not insertion order; callers that need insertion order
// should use Get. Iterating slots directly keeps repeated full scans
// bit-identical, which the peak statistics rescan relies on.
func (b *Buffer) Each(fn func(v float64)) {
	size := b.Size()
	for i := 0; i < size; i++ {
		fn(b.data[i])
	}
}

// Values appends the live values in insertion order to dst and returns it.
func (b *Buffer) Values(dst []float64) []float64 {
	size := b.Size()
	for i := 0; i < size; i++ {
		v, _ := b.Get(i)
		dst = append(dst, v)
	}
	return dst
}

// Snapshot externalizes the full buffer state so it can be persisted and the
// buffer later reconstructed with FromSnapshot. The data slice is a copy.
type Snapshot struct {
	Cursor   int
	Capacity int
	Filled   bool
	Data     []float64
}

// Snapshot returns a copy of the buffer state.
func (b *Buffer) Snapshot() Snapshot {
	data := make([]float64, len(b.data))
	copy(data, b.data)
	return Snapshot{
		Cursor:   b.cursor,
		Capacity: b.capacity,
		Filled:   b.filled,
		Data:     data,
	}
}

// FromSnapshot reconstructs a buffer from a snapshot, validating that the
// snapshot is self-consistent.
func FromSnapshot(s Snapshot) (*Buffer, error) {
	if s.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if len(s.Data) != s.Capacity {
		return nil, fmt.Errorf("ring: snapshot has %d slots, capacity %d", len(s.Data), s.Capacity)
	}
	if s.Cursor < 0 || s.Cursor >= s.Capacity {
		return nil, fmt.Errorf("ring: snapshot cursor %d out of range [0, %d)", s.Cursor, s.Capacity)
	}
	data := make([]float64, len(s.Data))
	copy(data, s.Data)
	return &Buffer{
		cursor:   s.Cursor,
		capacity: s.Capacity,
		filled:   s.Filled,
		data:     data,
	}, nil
}
