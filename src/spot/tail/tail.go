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

// Package tail models the upper tail of a distribution with a generalized
// Pareto distribution fitted over the most recent peaks. Two estimators
// compete on every fit, method of moments and Grimshaw maximum likelihood,
// and the parameters with the highest log-likelihood are retained.
package tail

import (
	"math"

	"github.com/m3db/spot/src/spot/peaks"
	xmath "github.com/m3db/spot/src/x/math"
)

var nan = math.NaN()

// Tail holds the fitted generalized Pareto parameters and the window of
// peaks they were fitted on.
type Tail struct {
	gamma float64
	sigma float64
	peaks *peaks.Stats
	math  xmath.Backend
}

// New returns a tail keeping at most capacity peaks. A nil backend selects
// the portable math backend.
func New(capacity int, backend xmath.Backend) (*Tail, error) {
	if backend == nil {
		backend = xmath.Portable
	}
	p, err := peaks.NewStats(capacity)
	if err != nil {
		return nil, err
	}
	return &Tail{
		gamma: nan,
		sigma: nan,
		peaks: p,
		math:  backend,
	}, nil
}

// Push adds a peak to the window, evicting the oldest once full.
func (t *Tail) Push(x float64) {
	t.peaks.Push(x)
}

// Fit refits (gamma, sigma) against the current peaks and returns the
// winning log-likelihood. An empty window returns NaN and leaves the
// parameters untouched.
func (t *Tail) Fit() float64 {
	if t.peaks.Size() == 0 {
		return nan
	}

	maxLlhood := nan

	// The method of moments candidate is adopted first and unconditionally,
	// so the fit always lands on usable parameters even when its score is
	// NaN. Grimshaw then has to strictly beat it.
	gamma, sigma, llhood := momEstimate(t.peaks, t.math)
	if math.IsNaN(maxLlhood) || llhood > maxLlhood {
		maxLlhood = llhood
		t.gamma = gamma
		t.sigma = sigma
	}

	gamma, sigma, llhood = grimshawEstimate(t.peaks, t.math)
	if math.IsNaN(maxLlhood) || llhood > maxLlhood {
		maxLlhood = llhood
		t.gamma = gamma
		t.sigma = sigma
	}

	return maxLlhood
}

// Probability returns P(X > t + d) where s estimates P(X > t), the mass
// beyond the threshold the peaks were measured against. NaN when the tail
// has no valid fit.
func (t *Tail) Probability(s, d float64) float64 {
	if math.IsNaN(t.gamma) || math.IsNaN(t.sigma) || t.sigma <= 0.0 {
		return nan
	}

	if t.gamma == 0.0 {
		return s * t.math.Exp(-d/t.sigma)
	}
	r := d * (t.gamma / t.sigma)
	return s * t.math.Pow(1.0+r, -1.0/t.gamma)
}

// Quantile returns the distance above the threshold at which the exceedance
// probability drops to q, where s estimates the mass beyond the threshold.
// NaN when the tail has no valid fit.
func (t *Tail) Quantile(s, q float64) float64 {
	if math.IsNaN(t.gamma) || math.IsNaN(t.sigma) || t.sigma <= 0.0 {
		return nan
	}

	r := q / s
	if t.gamma == 0.0 {
		return -t.sigma * t.math.Log(r)
	}
	return (t.sigma / t.gamma) * (t.math.Pow(r, -t.gamma) - 1.0)
}

// Gamma returns the fitted shape parameter, NaN before the first fit.
func (t *Tail) Gamma() float64 {
	return t.gamma
}

// Sigma returns the fitted scale parameter, NaN before the first fit.
func (t *Tail) Sigma() float64 {
	return t.sigma
}

// Size returns the number of peaks currently retained.
func (t *Tail) Size() int {
	return t.peaks.Size()
}

// Capacity returns the maximum number of peaks retained.
func (t *Tail) Capacity() int {
	return t.peaks.Capacity()
}

// Peaks returns the underlying peak statistics.
func (t *Tail) Peaks() *peaks.Stats {
	return t.peaks
}

// Snapshot captures the fitted parameters and the peaks window.
type Snapshot struct {
	Gamma float64
	Sigma float64
	Peaks peaks.Snapshot
}

// Snapshot returns a copy of the tail state.
func (t *Tail) Snapshot() Snapshot {
	return Snapshot{
		Gamma: t.gamma,
		Sigma: t.sigma,
		Peaks: t.peaks.Snapshot(),
	}
}

// FromSnapshot reconstructs a tail from a snapshot. A nil backend selects
// the portable math backend.
func FromSnapshot(snap Snapshot, backend xmath.Backend) (*Tail, error) {
	if backend == nil {
		backend = xmath.Portable
	}
	p, err := peaks.FromSnapshot(snap.Peaks)
	if err != nil {
		return nil, err
	}
	return &Tail{
		gamma: snap.Gamma,
		sigma: snap.Sigma,
		peaks: p,
		math:  backend,
	}, nil
}
