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

import (
	"math"

	"github.com/m3db/spot/src/spot/peaks"
	xmath "github.com/m3db/spot/src/x/math"
)

// momEstimate computes generalized Pareto parameters with the method of
// moments and returns (gamma, sigma, logLikelihood). All three are NaN when
// the statistics are undefined or the variance is not positive.
func momEstimate(p *peaks.Stats, m xmath.Backend) (float64, float64, float64) {
	e := p.Mean()
	v := p.Variance()
	if math.IsNaN(e) || math.IsNaN(v) || v <= 0.0 {
		return nan, nan, nan
	}

	r := e * e / v
	gamma := 0.5 * (1.0 - r)
	sigma := 0.5 * e * (1.0 + r)
	return gamma, sigma, logLikelihood(p, m, gamma, sigma)
}

// grimshawEstimate computes generalized Pareto parameters by maximum
// likelihood following Grimshaw (1993): candidate shape parameters are
// roots of w, searched in one bracket on each side of zero, and zero itself
// (the exponential fit) always participates. The candidate with the highest
// log-likelihood wins; earlier candidates are kept on ties.
func grimshawEstimate(p *peaks.Stats, m xmath.Backend) (float64, float64, float64) {
	mini, maxi, mean := p.Min(), p.Max(), p.Mean()
	if math.IsNaN(mini) || math.IsNaN(maxi) || math.IsNaN(mean) {
		return nan, nan, nan
	}

	epsilon := math.Min(brentEpsilon, 0.5/maxi)
	w := func(x float64) float64 {
		return grimshawW(x, p, m)
	}

	leftRoot, leftFound := brent(-1.0/maxi+epsilon, -epsilon, w, brentEpsilon)
	rightRoot, rightFound := brent(epsilon, 2.0*(mean-mini)/(mini*mini), w, brentEpsilon)

	bestGamma, bestSigma, maxLlhood := grimshawCandidate(0.0, p, m)
	if leftFound {
		if gamma, sigma, llhood := grimshawCandidate(leftRoot, p, m); llhood > maxLlhood {
			bestGamma, bestSigma, maxLlhood = gamma, sigma, llhood
		}
	}
	if rightFound {
		if gamma, sigma, llhood := grimshawCandidate(rightRoot, p, m); llhood > maxLlhood {
			bestGamma, bestSigma, maxLlhood = gamma, sigma, llhood
		}
	}
	return bestGamma, bestSigma, maxLlhood
}

// grimshawCandidate maps a root of w to its (gamma, sigma) pair and scores
// it. A root of exactly zero collapses to the exponential fit sigma = mean.
func grimshawCandidate(xStar float64, p *peaks.Stats, m xmath.Backend) (float64, float64, float64) {
	var gamma, sigma float64
	if xStar == 0.0 {
		gamma, sigma = 0.0, p.Mean()
	} else {
		gamma = grimshawV(xStar, p, m) - 1.0
		sigma = gamma / xStar
	}
	return gamma, sigma, logLikelihood(p, m, gamma, sigma)
}

// grimshawW is the objective whose roots are candidate shape parameters.
// Any value that leaves the log domain yields NaN so the root search
// abandons the bracket.
func grimshawW(x float64, p *peaks.Stats, m xmath.Backend) float64 {
	size := p.Size()
	var u, v float64
	for i := 0; i < size; i++ {
		xi, _ := p.At(i)
		s := 1.0 + x*xi
		if s <= 0.0 {
			return nan
		}
		u += 1.0 / s
		v += m.Log(s)
	}
	if size == 0 {
		return nan
	}

	nt := float64(size)
	return (u/nt)*(1.0+v/nt) - 1.0
}

func grimshawV(x float64, p *peaks.Stats, m xmath.Backend) float64 {
	size := p.Size()
	var v float64
	for i := 0; i < size; i++ {
		xi, _ := p.At(i)
		v += m.Log(1.0 + x*xi)
	}
	return 1.0 + v/float64(size)
}

// logLikelihood scores a (gamma, sigma) pair against the retained peaks.
// Invalid parameters, an empty sample, or a datum outside the distribution
// support score negative infinity so they lose every comparison.
func logLikelihood(p *peaks.Stats, m xmath.Backend, gamma, sigma float64) float64 {
	size := p.Size()
	nt := float64(size)
	if nt == 0.0 || sigma <= 0.0 {
		return math.Inf(-1)
	}

	if gamma == 0.0 {
		return -nt*m.Log(sigma) - p.Sum()/sigma
	}

	r := -nt * m.Log(sigma)
	c := 1.0 + 1.0/gamma
	x := gamma / sigma
	for i := 0; i < size; i++ {
		v, _ := p.At(i)
		term := 1.0 + x*v
		if term <= 0.0 {
			return math.Inf(-1)
		}
		r += -c * m.Log(term)
	}
	return r
}
