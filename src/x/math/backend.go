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

import "math"

// Backend computes the transcendental functions the tail estimators depend
// on. It is passed explicitly at construction so callers can swap in the
// platform implementation when cross-validating fits.
type Backend interface {
	// Log returns the natural logarithm of x.
	Log(x float64) float64
	// Exp returns e**x.
	Exp(x float64) float64
	// Pow returns a**x.
	Pow(a, x float64) float64
}

var (
	// Portable is the continued fraction implementation. It is the default
	// backend and the one whose results are reproducible across platforms.
	Portable Backend = portableBackend{}

	// Native delegates to the standard library math package. Results follow
	// platform semantics and may differ from Portable in the last bits; it
	// exists for cross-validation and for callers that prefer the platform
	// transcendentals over reproducibility.
	Native Backend = nativeBackend{}
)

type portableBackend struct{}

func (portableBackend) Log(x float64) float64    { return Log(x) }
func (portableBackend) Exp(x float64) float64    { return Exp(x) }
func (portableBackend) Pow(a, x float64) float64 { return Pow(a, x) }

type nativeBackend struct{}

func (nativeBackend) Log(x float64) float64    { return math.Log(x) }
func (nativeBackend) Exp(x float64) float64    { return math.Exp(x) }
func (nativeBackend) Pow(a, x float64) float64 { return math.Pow(a, x) }
