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

// Package xmath provides portable transcendental functions built from
// continued fraction expansions. The expansions use only elementary IEEE 754
// arithmetic instead of the platform libm, so results do not vary with the
// host's math library; downstream exact-equality comparisons depend on that.
package xmath

import "math"

// log2 carries the exact bit pattern the expansions were validated against.
var log2 = math.Float64frombits(0x3FE62E42FEFA39EF)

// Log returns the natural logarithm of x. It returns NaN for negative or
// NaN input and -Inf for zero.
func Log(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return math.NaN()
	}
	if x == 0 {
		return math.Inf(-1)
	}

	mantissa, exponent := frexp(x)
	if exponent == 0 || exponent == -1 {
		return logCF11(x)
	}
	return logCF11(mantissa) + log2*float64(exponent)
}

// Exp returns e**x. It returns NaN for NaN input.
func Exp(x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	if x < 0 {
		return 1.0 / Exp(-x)
	}
	if x > log2 {
		k := uint32(x / log2)
		r := x - log2*float64(k)
		return expCF6(r) * math.Ldexp(1, int(k))
	}
	return expCF6(x)
}

// Pow returns a**x computed as Exp(x * Log(a)).
func Pow(a, x float64) float64 {
	return Exp(x * Log(a))
}

// logCF11 evaluates an 11th order continued fraction expansion of the
// natural logarithm around 1, accurate over [0.25, 1).
func logCF11(z float64) float64 {
	x := z - 1.0
	xx := x + 2.0
	x2 := x * x

	// Odd multiples of xx built by repeated addition; the rounding
	// sequence is part of the function's contract.
	xx2 := xx + xx
	xx3 := xx + xx2
	xx5 := xx3 + xx2
	xx7 := xx5 + xx2
	xx9 := xx7 + xx2
	xx11 := xx9 + xx2
	xx13 := xx11 + xx2
	xx15 := xx13 + xx2
	xx17 := xx15 + xx2
	xx19 := xx17 + xx2
	xx21 := xx19 + xx2

	return 2.0 * x /
		(-x2/(-4.0*x2/
			(-9.0*x2/
				(-16.0*x2/
					(-25.0*x2/
						(-36.0*x2/
							(-49.0*x2/
								(-64.0*x2/
									(-81.0*x2/
										(-100.0*x2/xx21+
											xx19)+
										xx17)+
									xx15)+
								xx13)+
							xx11)+
						xx9)+
					xx7)+
				xx5)+
			xx3) +
			xx)
}

// expCF6 evaluates a 6th order continued fraction expansion of the
// exponential, accurate over [0, log2].
func expCF6(z float64) float64 {
	z2 := z * z

	return 2.0*z/
		(2.0*z2/
			(12.0*z2/
				(60.0*z2/(140.0*z2/(7.0*z2/11.0+252.0)+140.0)+
					60.0)+
				12.0)-
			z+2.0) +
		1.0
}

// frexp decomposes x into mantissa and exponent with the mantissa in
// [0.5, 1), matching math.Frexp, using only bit manipulation.
func frexp(x float64) (float64, int) {
	if x == 0 {
		return x, 0
	}

	bits := math.Float64bits(x)
	sign := 1.0
	if bits&(1<<63) != 0 {
		sign = -1.0
	}
	expBits := (bits >> 52) & 0x7ff
	mantissaBits := bits & 0xfffffffffffff

	if expBits == 0 {
		// Subnormal: prescale into the normal range first.
		mantissa, exponent := frexp(x * float64(uint64(1)<<52))
		return mantissa, exponent - 52
	}
	if expBits == 0x7ff {
		// Infinity or NaN.
		return x, 0
	}

	exponent := int(expBits) - 0x3fe
	mantissa := sign * math.Float64frombits(mantissaBits|0x3fe0000000000000)
	return mantissa, exponent
}
