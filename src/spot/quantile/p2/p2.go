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

// Package p2 implements the P-Square single pass quantile estimator
// (Jain and Chlamtac, 1985). It tracks five markers whose positions are
// adjusted with parabolic interpolation as observations arrive, so a
// quantile of a batch is estimated in O(1) space.
package p2

// estimator holds the five marker state for a single quantile.
type estimator struct {
	q  [5]float64 // marker heights
	n  [5]float64 // marker positions
	np [5]float64 // desired marker positions
	dn [5]float64 // desired position increments
}

func newEstimator(p float64) estimator {
	e := estimator{
		n: [5]float64{0.0, 1.0, 2.0, 3.0, 4.0},
	}
	e.np[1] = 2.0 * p
	e.np[2] = 4.0 * p
	e.np[3] = 2.0 + 2.0*p
	e.np[4] = 4.0

	e.dn[1] = p / 2.0
	e.dn[2] = p
	e.dn[3] = (p + 1.0) / 2.0
	e.dn[4] = 1.0

	return e
}

func (e *estimator) quantile(data []float64) float64 {
	size := len(data)
	if size < 5 {
		return 0.0
	}

	copy(e.q[:], data[:5])
	sort5(&e.q)

	for j := 5; j < size; j++ {
		xj := data[j]
		switch {
		case xj < e.q[0]:
			e.q[0] = xj
		case xj > e.q[4]:
			e.q[4] = xj
		default:
			// Find k such that q[k] < xj <= q[k+1].
			k := 0
			for k < 4 && xj > e.q[k] {
				k++
			}
			if k > 0 {
				k--
			}

			for i := k + 1; i < 5; i++ {
				e.n[i]++
			}
			for i := 0; i < 5; i++ {
				e.np[i] += e.dn[i]
			}

			// Adjust the interior markers towards their desired positions.
			for i := 1; i < 4; i++ {
				d := e.np[i] - e.n[i]
				if (d >= 1.0 && e.n[i+1]-e.n[i] > 1.0) ||
					(d <= -1.0 && e.n[i-1]-e.n[i] < -1.0) {
					dSign := sign(d)
					qp := e.parabolic(i, int(dSign))
					if !(e.q[i-1] < qp && qp < e.q[i+1]) {
						qp = e.linear(i, int(dSign))
					}
					e.q[i] = qp
					e.n[i] += dSign
				}
			}
		}
	}

	return e.q[2]
}

func (e *estimator) linear(i, d int) float64 {
	return e.q[i] + float64(d)*(e.q[i+d]-e.q[i])/(e.n[i+d]-e.n[i])
}

func (e *estimator) parabolic(i, d int) float64 {
	df := float64(d)
	return e.q[i] + (df/(e.n[i+1]-e.n[i-1]))*
		((e.n[i]-e.n[i-1]+df)*(e.q[i+1]-e.q[i])/(e.n[i+1]-e.n[i])+
			(e.n[i+1]-e.n[i]-df)*(e.q[i]-e.q[i-1])/(e.n[i]-e.n[i-1]))
}

func sign(d float64) float64 {
	if d > 0.0 {
		return 1.0
	}
	if d < 0.0 {
		return -1.0
	}
	return 0.0
}

// sort5 sorts the five marker heights with a fixed comparison network so
// the floating point result does not depend on a general sort's pivoting.
func sort5(a *[5]float64) {
	swap := func(i, j int) {
		a[i], a[j] = a[j], a[i]
	}

	if a[1] < a[0] {
		swap(0, 1)
	}
	if a[3] < a[2] {
		swap(2, 3)
	}
	// Order the first three elements.
	if a[0] < a[2] {
		swap(1, 2)
		swap(2, 3)
	} else {
		swap(1, 2)
		swap(0, 1)
	}
	// Insert the fifth element into the first three.
	if a[4] < a[1] {
		if a[4] < a[0] {
			swap(4, 3)
			swap(3, 2)
			swap(2, 1)
			swap(1, 0)
		} else {
			swap(4, 3)
			swap(3, 2)
			swap(2, 1)
		}
	} else {
		if a[4] < a[2] {
			swap(4, 3)
			swap(3, 2)
		} else {
			swap(4, 3)
		}
	}
	// Insert the remaining element into the tail.
	if a[4] < a[2] {
		if a[4] < a[1] {
			swap(4, 3)
			swap(3, 2)
			swap(2, 1)
		} else {
			swap(4, 3)
			swap(3, 2)
		}
	} else {
		if a[4] < a[3] {
			swap(4, 3)
		}
	}
}

// Quantile estimates the p-quantile of data in a single pass without
// sorting it. Batches of fewer than five observations return 0.
func Quantile(p float64, data []float64) float64 {
	e := newEstimator(p)
	return e.quantile(data)
}
