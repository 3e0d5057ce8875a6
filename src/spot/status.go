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

import "fmt"

// Status is the classification assigned to a single observation.
type Status int

const (
	// StatusNormal marks an observation below the excess threshold.
	StatusNormal Status = iota

	// StatusExcess marks an observation beyond the excess threshold that
	// was folded into the tail model.
	StatusExcess

	// StatusAnomaly marks an observation beyond the anomaly threshold.
	StatusAnomaly
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusExcess:
		return "excess"
	case StatusAnomaly:
		return "anomaly"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}
