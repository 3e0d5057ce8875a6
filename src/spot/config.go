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

const (
	defaultQ                = 1e-4
	defaultLevel            = 0.998
	defaultMaxExcess        = 200
	defaultLowTail          = false
	defaultDiscardAnomalies = true
)

// Config holds the statistical configuration of a detector.
type Config struct {
	// Q is the decision probability: observations whose exceedance
	// probability falls below Q are classified as anomalies.
	Q float64 `json:"q" yaml:"q"`

	// Level locates the excess threshold, e.g. 0.998 keeps the top 0.2%
	// of observations as tail candidates. Must lie in (0, 1), and Q must
	// lie in (0, 1-Level).
	Level float64 `json:"level" yaml:"level"`

	// MaxExcess caps how many excesses the tail model retains.
	MaxExcess int `json:"max_excess" yaml:"maxExcess"`

	// LowTail monitors the lower tail instead of the upper one.
	LowTail bool `json:"low_tail" yaml:"lowTail"`

	// DiscardAnomalies keeps anomalous observations out of the model so
	// they cannot drag the anomaly threshold upwards.
	DiscardAnomalies bool `json:"discard_anomalies" yaml:"discardAnomalies"`
}

// NewDefaultConfig returns the default detector configuration.
func NewDefaultConfig() Config {
	return Config{
		Q:                defaultQ,
		Level:            defaultLevel,
		MaxExcess:        defaultMaxExcess,
		LowTail:          defaultLowTail,
		DiscardAnomalies: defaultDiscardAnomalies,
	}
}

// Validate validates the configuration. The bounds are phrased so NaN
// fails them too.
func (c Config) Validate() error {
	if !(c.Level > 0.0 && c.Level < 1.0) {
		return ErrLevelOutOfBounds
	}
	if !(c.Q > 0.0 && c.Q < 1.0-c.Level) {
		return ErrQOutOfBounds
	}
	if c.MaxExcess < 1 {
		return ErrCapacityInvalid
	}
	return nil
}
