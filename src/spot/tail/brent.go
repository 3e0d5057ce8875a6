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

package tail

import "math"

const (
	// brentEpsilon is the floating point tolerance folded into the
	// per-iteration convergence bound.
	brentEpsilon = 2.0e-8

	// brentMaxIterations caps the root search.
	brentMaxIterations = 200
)

// brent finds a root of fn within [x1, x2] using Brent's method, combining
// inverse quadratic interpolation with a bisection fallback. It reports
// false when the bracket does not straddle a sign change or when fn
// evaluates to NaN. Exhausting the iteration cap is not a failure: the last
// iterate is returned as the best estimate found.
func brent(x1, x2 float64, fn func(float64) float64, tol float64) (float64, bool) {
	var (
		a, b, c = x1, x2, x2
		d, e    float64
	)

	fa, fb := fn(a), fn(b)
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return 0, false
	}
	if (fa > 0.0 && fb > 0.0) || (fa < 0.0 && fb < 0.0) {
		return 0, false
	}

	fc := fb
	for iter := 0; iter < brentMaxIterations; iter++ {
		if (fb > 0.0 && fc > 0.0) || (fb < 0.0 && fc < 0.0) {
			// Rename a, b, c and adjust the bounding interval.
			c = a
			fc = fa
			e = b - a
			d = e
		}
		if math.Abs(fc) < math.Abs(fb) {
			a = b
			b = c
			c = a
			fa = fb
			fb = fc
			fc = fa
		}

		tol1 := 2.0*brentEpsilon*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0.0 {
			return b, true
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// Attempt inverse quadratic interpolation.
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2.0 * xm * s
				q = 1.0 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2.0*xm*q*(q-r) - (b-a)*(r-1.0))
				q = (q - 1.0) * (r - 1.0) * (s - 1.0)
			}
			if p > 0.0 {
				q = -q
			}
			p = math.Abs(p)

			min1 := 3.0*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			minBound := min2
			if min1 < min2 {
				minBound = min1
			}
			if 2.0*p < minBound {
				// Accept interpolation.
				e = d
				d = p / q
			} else {
				// Interpolation failed, use bisection.
				d = xm
				e = d
			}
		} else {
			// Bounds decreasing too slowly, use bisection.
			d = xm
			e = d
		}

		a = b
		fa = fb
		if math.Abs(d) > tol1 {
			b += d
		} else if xm >= 0.0 {
			b += math.Abs(tol1)
		} else {
			b -= math.Abs(tol1)
		}
		fb = fn(b)
		if math.IsNaN(fb) {
			return 0, false
		}
	}

	// Iteration cap exhausted: hand back the best estimate rather than
	// failing, so a candidate root is never silently discarded.
	return b, true
}
