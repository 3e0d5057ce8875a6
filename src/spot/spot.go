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

// Package spot implements SPOT (Streaming Peaks Over Threshold), an online
// extreme value analysis algorithm that classifies each observation of a
// numeric stream as normal, excess or anomaly with bounded memory. A
// detector is calibrated once on a training batch and then consumes the
// stream one observation at a time, re-deriving its anomaly threshold from
// a generalized Pareto fit over the most recent excesses.
//
// A detector serves exactly one ordered stream and is not safe for
// concurrent use; run one detector per stream instead of sharing one.
package spot

import (
	"math"

	"go.uber.org/zap"

	"github.com/m3db/spot/src/spot/quantile/p2"
	"github.com/m3db/spot/src/spot/tail"
)

var nan = math.NaN()

// Detector is a SPOT anomaly detector over a single stream.
type Detector struct {
	q                float64
	level            float64
	discardAnomalies bool
	low              bool
	upDown           float64

	anomalyThreshold float64
	excessThreshold  float64

	nt int
	n  int

	tail *tail.Tail

	logger  *zap.Logger
	metrics detectorMetrics
}

// NewDetector returns an uncalibrated detector for the given configuration.
// A nil opts selects the default options.
func NewDetector(cfg Config, opts Options) (*Detector, error) {
	if opts == nil {
		opts = NewOptions()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	upDown := 1.0
	if cfg.LowTail {
		upDown = -1.0
	}

	tl, err := tail.New(cfg.MaxExcess, opts.MathBackend())
	if err != nil {
		return nil, err
	}

	iopts := opts.InstrumentOptions()
	return &Detector{
		q:                cfg.Q,
		level:            cfg.Level,
		discardAnomalies: cfg.DiscardAnomalies,
		low:              cfg.LowTail,
		upDown:           upDown,
		anomalyThreshold: nan,
		excessThreshold:  nan,
		tail:             tl,
		logger:           iopts.Logger(),
		metrics:          newDetectorMetrics(iopts.MetricsScope()),
	}, nil
}

// Fit calibrates the detector on a training batch: the excess threshold is
// estimated as the configured level quantile of the batch, the excesses
// beyond it seed the tail model, and the initial anomaly threshold is
// extrapolated from the fitted tail. Counters are reset; the tail window
// itself is not, so calling Fit on a live detector folds the new excesses
// into the existing window. Construct a fresh detector for a clean refit.
func (d *Detector) Fit(data []float64) error {
	d.nt = 0
	d.n = len(data)

	level := d.level
	if d.low {
		level = 1.0 - d.level
	}
	et := p2.Quantile(level, data)
	if math.IsNaN(et) {
		return ErrExcessThresholdNaN
	}
	d.excessThreshold = et

	for _, value := range data {
		excess := d.upDown * (value - et)
		if excess > 0.0 {
			d.nt++
			d.tail.Push(excess)
		}
	}

	llhood := d.tail.Fit()

	d.anomalyThreshold = d.Quantile(d.q)
	if math.IsNaN(d.anomalyThreshold) {
		return ErrAnomalyThresholdNaN
	}

	gamma, sigma := d.tail.Gamma(), d.tail.Sigma()
	d.logger.Debug("fit detector",
		zap.Int("n", d.n),
		zap.Int("nt", d.nt),
		zap.Float64("excessThreshold", d.excessThreshold),
		zap.Float64("anomalyThreshold", d.anomalyThreshold),
		zap.Float64("gamma", gamma),
		zap.Float64("sigma", sigma),
		zap.Float64("logLikelihood", llhood),
	)
	return nil
}

// Step classifies one observation. Anomalies return immediately without
// touching the model when DiscardAnomalies is set; excesses are folded into
// the tail, the tail is refitted, and the anomaly threshold is re-derived
// before returning. A NaN observation is rejected with ErrDataNaN and
// leaves all state untouched.
func (d *Detector) Step(x float64) (Status, error) {
	if math.IsNaN(x) {
		d.metrics.nanRejected.Inc(1)
		return StatusNormal, ErrDataNaN
	}

	if d.discardAnomalies && d.upDown*(x-d.anomalyThreshold) > 0.0 {
		d.metrics.anomaly.Inc(1)
		return StatusAnomaly, nil
	}

	d.n++

	if ex := d.upDown * (x - d.excessThreshold); ex >= 0.0 {
		d.nt++
		d.tail.Push(ex)
		d.tail.Fit()
		d.anomalyThreshold = d.Quantile(d.q)
		d.metrics.excess.Inc(1)
		d.metrics.refit.Inc(1)
		return StatusExcess, nil
	}

	d.metrics.normal.Inc(1)
	return StatusNormal, nil
}

// Quantile extrapolates the value whose exceedance probability is q, in the
// monitored direction. NaN before calibration.
func (d *Detector) Quantile(q float64) float64 {
	if d.n == 0 {
		return nan
	}
	s := float64(d.nt) / float64(d.n)
	return d.excessThreshold + d.upDown*d.tail.Quantile(s, q)
}

// Probability estimates the probability that an observation is at least as
// extreme as z, in the monitored direction. NaN before calibration.
func (d *Detector) Probability(z float64) float64 {
	if d.n == 0 {
		return nan
	}
	s := float64(d.nt) / float64(d.n)
	return d.tail.Probability(s, d.upDown*(z-d.excessThreshold))
}

// AnomalyThreshold returns the current anomaly threshold, NaN before
// calibration.
func (d *Detector) AnomalyThreshold() float64 {
	return d.anomalyThreshold
}

// ExcessThreshold returns the current excess threshold, NaN before
// calibration.
func (d *Detector) ExcessThreshold() float64 {
	return d.excessThreshold
}

// N returns the number of observations folded into the model.
func (d *Detector) N() int {
	return d.n
}

// Nt returns the number of observations that were excesses.
func (d *Detector) Nt() int {
	return d.nt
}

// TailParameters returns the fitted generalized Pareto (gamma, sigma).
func (d *Detector) TailParameters() (float64, float64) {
	return d.tail.Gamma(), d.tail.Sigma()
}

// TailSize returns the number of excesses currently held by the tail model.
func (d *Detector) TailSize() int {
	return d.tail.Size()
}

// PeaksMin returns the smallest retained excess, NaN when the tail is empty.
func (d *Detector) PeaksMin() float64 {
	return d.tail.Peaks().Min()
}

// PeaksMax returns the largest retained excess, NaN when the tail is empty.
func (d *Detector) PeaksMax() float64 {
	return d.tail.Peaks().Max()
}

// PeaksMean returns the mean of the retained excesses, NaN when the tail is
// empty.
func (d *Detector) PeaksMean() float64 {
	return d.tail.Peaks().Mean()
}

// PeaksVariance returns the variance of the retained excesses, NaN when the
// tail is empty.
func (d *Detector) PeaksVariance() float64 {
	return d.tail.Peaks().Variance()
}

// Config returns the detector configuration, reconstructed from the live
// state.
func (d *Detector) Config() Config {
	return Config{
		Q:                d.q,
		Level:            d.level,
		MaxExcess:        d.tail.Capacity(),
		LowTail:          d.low,
		DiscardAnomalies: d.discardAnomalies,
	}
}
