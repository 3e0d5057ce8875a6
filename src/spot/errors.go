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

package spot

import "errors"

var (
	// ErrLevelOutOfBounds is returned at construction when the configured
	// level does not lie in (0, 1).
	ErrLevelOutOfBounds = errors.New("level must be in (0, 1)")

	// ErrQOutOfBounds is returned at construction when the configured q
	// does not lie in (0, 1-level).
	ErrQOutOfBounds = errors.New("q must be in (0, 1-level)")

	// ErrCapacityInvalid is returned at construction when the configured
	// max excess capacity is below one.
	ErrCapacityInvalid = errors.New("max excess must be at least one")

	// ErrExcessThresholdNaN is returned by Fit when the excess threshold
	// cannot be estimated from the training batch.
	ErrExcessThresholdNaN = errors.New("excess threshold is NaN")

	// ErrAnomalyThresholdNaN is returned by Fit when the anomaly threshold
	// cannot be extrapolated from the fitted tail.
	ErrAnomalyThresholdNaN = errors.New("anomaly threshold is NaN")

	// ErrDataNaN is returned by Step when the observation is NaN. The
	// detector state is left untouched.
	ErrDataNaN = errors.New("input data is NaN")

	// ErrCorruptSnapshot is returned when restoring a detector from a
	// snapshot that fails decoding or validation.
	ErrCorruptSnapshot = errors.New("corrupt detector snapshot")
)
