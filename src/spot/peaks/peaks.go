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

// Package peaks maintains incremental statistics (sum, sum of squares, min,
// max) over the live contents of a fixed-capacity ring buffer.
package peaks

import (
	"math"

	"github.com/m3db/spot/src/spot/ring"
)

var nan = math.NaN()

// Stats tracks running statistics over the most recent values pushed into
// its ring buffer. It is not safe for concurrent use.
type Stats struct {
	// e is the sum of the live elements.
	e float64
	// e2 is the sum of the squares of the live elements.
	e2 float64
	// min is the smallest live element, NaN while empty.
	min float64
	// max is the largest live element, NaN while empty.
	max float64
	// container holds the live elements.
	container *ring.Buffer
}

// NewStats creates peak statistics over a buffer of the given capacity.
func NewStats(capacity int) (*Stats, error) {
	container, err := ring.NewBuffer(capacity)
	if err != nil {
		return nil, err
	}
	return &Stats{
		min:       nan,
		max:       nan,
		container: container,
	}, nil
}

// Size returns the number of live elements.
func (s *Stats) Size() int { return s.container.Size() }

// Capacity returns the underlying buffer capacity.
func (s *Stats) Capacity() int { return s.container.Capacity() }

// Push inserts x, updating the cached statistics. If the insert evicts the
// element that was the cached min or max, every statistic is recomputed by a
// full scan of the live elements; the scan also resets the accumulated
// rounding drift of the incremental adds and subtracts.
func (s *Stats) Push(x float64) {
	evicted, didEvict := s.container.Push(x)
	size := s.Size()

	s.e += x
	s.e2 += x * x

	if size == 1 || x < s.min {
		s.min = x
	}
	if size == 1 || x > s.max {
		s.max = x
	}

	if didEvict {
		s.e -= evicted
		s.e2 -= evicted * evicted
		if evicted <= s.min || evicted >= s.max {
			s.rescan()
		}
	}
}

// Mean returns the mean of the live elements, NaN when empty.
func (s *Stats) Mean() float64 {
	size := s.Size()
	if size == 0 {
		return nan
	}
	return s.e / float64(size)
}

// Variance returns the population variance of the live elements, NaN when
// empty.
func (s *Stats) Variance() float64 {
	size := s.Size()
	if size == 0 {
		return nan
	}
	sizeF := float64(size)
	mean := s.e / sizeF
	return (s.e2 / sizeF) - (mean * mean)
}

// Min returns the smallest live element, NaN when empty.
func (s *Stats) Min() float64 { return s.min }

// Max returns the largest live element, NaN when empty.
func (s *Stats) Max() float64 { return s.max }

// Sum returns the sum of the live elements.
func (s *Stats) Sum() float64 { return s.e }

// SumSquares returns the sum of the squares of the live elements.
func (s *Stats) SumSquares() float64 { return s.e2 }

// At returns the i-th oldest live element.
func (s *Stats) At(i int) (float64, bool) { return s.container.Get(i) }

// Values appends the live elements in insertion order to dst and returns it.
func (s *Stats) Values(dst []float64) []float64 { return s.container.Values(dst) }

// rescan recomputes every cached statistic from the live elements. The scan
// walks backing slots, not insertion order, so repeated scans over the same
// contents accumulate in the same order and stay bit-identical.
func (s *Stats) rescan() {
	s.min = nan
	s.max = nan
	s.e = 0
	s.e2 = 0

	s.container.Each(func(v float64) {
		s.e += v
		s.e2 += v * v
		if math.IsNaN(s.min) || v < s.min {
			s.min = v
		}
		if math.IsNaN(s.max) || v > s.max {
			s.max = v
		}
	})
}

// Snapshot externalizes the statistics state.
type Snapshot struct {
	E      float64
	E2     float64
	Min    float64
	Max    float64
	Buffer ring.Snapshot
}

// Snapshot returns a copy of the statistics state.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		E:      s.e,
		E2:     s.e2,
		Min:    s.min,
		Max:    s.max,
		Buffer: s.container.Snapshot(),
	}
}

// FromSnapshot reconstructs statistics from a snapshot.
func FromSnapshot(snap Snapshot) (*Stats, error) {
	container, err := ring.FromSnapshot(snap.Buffer)
	if err != nil {
		return nil, err
	}
	return &Stats{
		e:         snap.E,
		e2:        snap.E2,
		min:       snap.Min,
		max:       snap.Max,
		container: container,
	}, nil
}
