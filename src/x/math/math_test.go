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

package xmath

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// requireClose asserts |got-want| is within tol scaled by the magnitude
// of want, so huge and tiny results are judged fairly.
func requireClose(t *testing.T, want, got, tol float64) {
	t.Helper()
	bound := tol * math.Max(1.0, math.Abs(want))
	require.True(t, math.Abs(got-want) <= bound,
		"got %v, want %v (tolerance %v)", got, want, bound)
}

func TestLogSpecials(t *testing.T) {
	require.True(t, math.IsNaN(Log(-1.0)))
	require.True(t, math.IsNaN(Log(math.NaN())))
	require.True(t, math.IsInf(Log(0.0), -1))
	require.Equal(t, 0.0, Log(1.0))
	requireClose(t, log2, Log(2.0), 1e-15)
	requireClose(t, 1.0, Log(math.E), 1e-14)
}

func TestLogMatchesNative(t *testing.T) {
	for exp := -300; exp <= 300; exp += 3 {
		x := math.Pow(10, float64(exp))
		requireClose(t, math.Log(x), Log(x), 1e-11)
	}

	rnd := rand.New(rand.NewSource(0)) //nolint:gosec
	for i := 0; i < 10000; i++ {
		x := math.Exp(rnd.Float64()*40 - 20)
		requireClose(t, math.Log(x), Log(x), 1e-11)
	}
}

func TestExpSpecials(t *testing.T) {
	require.True(t, math.IsNaN(Exp(math.NaN())))
	require.Equal(t, 1.0, Exp(0.0))
	requireClose(t, math.E, Exp(1.0), 1e-14)
	requireClose(t, 2.0, Exp(log2), 1e-14)
	require.True(t, math.IsInf(Exp(1000.0), 1))
	require.Equal(t, 1.0/Exp(3.5), Exp(-3.5))
}

func TestExpMatchesNative(t *testing.T) {
	for x := -700.0; x <= 700.0; x += 0.5 {
		requireClose(t, math.Exp(x), Exp(x), 1e-12)
	}

	rnd := rand.New(rand.NewSource(0)) //nolint:gosec
	for i := 0; i < 10000; i++ {
		x := rnd.Float64()*200 - 100
		requireClose(t, math.Exp(x), Exp(x), 1e-12)
	}
}

func TestPow(t *testing.T) {
	requireClose(t, 8.0, Pow(2.0, 3.0), 1e-13)
	requireClose(t, 2.0, Pow(4.0, 0.5), 1e-13)
	requireClose(t, math.E*math.E, Pow(math.E, 2.0), 1e-13)
	require.Equal(t, 1.0, Pow(5.0, 0.0))

	// Negative bases have no real logarithm, unlike math.Pow which special
	// cases integer exponents.
	require.True(t, math.IsNaN(Pow(-2.0, 2.0)))
}

func TestPowMatchesNative(t *testing.T) {
	rnd := rand.New(rand.NewSource(0)) //nolint:gosec
	for i := 0; i < 10000; i++ {
		a := math.Exp(rnd.Float64()*10 - 5)
		x := rnd.Float64()*20 - 10
		requireClose(t, math.Pow(a, x), Pow(a, x), 1e-11)
	}
}

func TestFrexpMatchesNative(t *testing.T) {
	values := []float64{
		8.0, 0.5, 1.0, -1.0, 2.0, 1e300, 1e-300, math.Pi, -math.Pi,
		5e-324, 1e-310, -5e-324, // subnormals
		0.0, math.Copysign(0, -1),
		math.Inf(1), math.Inf(-1),
	}
	for _, x := range values {
		wantFrac, wantExp := math.Frexp(x)
		gotFrac, gotExp := frexp(x)
		require.Equal(t, wantExp, gotExp, "exponent of %v", x)
		require.Equal(t, math.Float64bits(wantFrac), math.Float64bits(gotFrac),
			"mantissa of %v", x)
	}

	rnd := rand.New(rand.NewSource(0)) //nolint:gosec
	for i := 0; i < 10000; i++ {
		x := math.Ldexp(rnd.Float64()*2-1, rnd.Intn(2000)-1000)
		wantFrac, wantExp := math.Frexp(x)
		gotFrac, gotExp := frexp(x)
		require.Equal(t, wantExp, gotExp, "exponent of %v", x)
		require.Equal(t, math.Float64bits(wantFrac), math.Float64bits(gotFrac),
			"mantissa of %v", x)
	}
}

func TestBackends(t *testing.T) {
	for _, x := range []float64{0.1, 1.0, 2.5, 100.0} {
		require.Equal(t, Log(x), Portable.Log(x))
		require.Equal(t, Exp(x), Portable.Exp(x))
		require.Equal(t, Pow(x, 1.5), Portable.Pow(x, 1.5))

		require.Equal(t, math.Log(x), Native.Log(x))
		require.Equal(t, math.Exp(x), Native.Exp(x))
		require.Equal(t, math.Pow(x, 1.5), Native.Pow(x, 1.5))
	}
}
