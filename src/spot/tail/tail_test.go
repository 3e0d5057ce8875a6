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
	"os"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/m3db/spot/src/spot/ring"
)

func TestNewTail(t *testing.T) {
	tl, err := New(10, nil)
	require.NoError(t, err)
	require.Equal(t, 0, tl.Size())
	require.Equal(t, 10, tl.Capacity())
	require.True(t, math.IsNaN(tl.Gamma()))
	require.True(t, math.IsNaN(tl.Sigma()))
}

func TestNewTailInvalidCapacity(t *testing.T) {
	_, err := New(0, nil)
	require.Error(t, err)
	require.Equal(t, ring.ErrInvalidCapacity, err)
}

func TestTailPush(t *testing.T) {
	tl, err := New(5, nil)
	require.NoError(t, err)

	tl.Push(1.0)
	require.Equal(t, 1, tl.Size())

	tl.Push(2.0)
	tl.Push(3.0)
	require.Equal(t, 3, tl.Size())
}

func TestTailFitEmpty(t *testing.T) {
	tl, err := New(5, nil)
	require.NoError(t, err)

	llhood := tl.Fit()
	require.True(t, math.IsNaN(llhood))
	require.True(t, math.IsNaN(tl.Gamma()))
	require.True(t, math.IsNaN(tl.Sigma()))
}

func TestTailFitWithData(t *testing.T) {
	tl, err := New(10, nil)
	require.NoError(t, err)
	for _, v := range []float64{1.0, 1.5, 2.0, 2.5, 3.0, 1.2, 1.8, 2.2} {
		tl.Push(v)
	}

	llhood := tl.Fit()
	require.False(t, math.IsNaN(llhood))
	require.False(t, math.IsInf(llhood, 0))
	require.False(t, math.IsNaN(tl.Gamma()))
	require.False(t, math.IsNaN(tl.Sigma()))
	require.True(t, tl.Sigma() > 0.0)
}

func TestTailFitNeverWorseThanMom(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		tl, err := New(300, nil)
		require.NoError(t, err)
		for _, v := range exponentialSample(seed, 300) {
			tl.Push(v)
		}

		_, _, momLlhood := momEstimate(tl.Peaks(), tl.math)
		fitLlhood := tl.Fit()
		if math.IsNaN(momLlhood) {
			continue
		}
		require.GreaterOrEqual(t, fitLlhood, momLlhood, "seed %d", seed)
	}
}

func TestTailFitDeterministic(t *testing.T) {
	values := exponentialSample(11, 250)

	fit := func() (float64, float64, float64) {
		tl, err := New(250, nil)
		require.NoError(t, err)
		for _, v := range values {
			tl.Push(v)
		}
		llhood := tl.Fit()
		return tl.Gamma(), tl.Sigma(), llhood
	}

	g1, s1, l1 := fit()
	g2, s2, l2 := fit()
	require.Equal(t, g1, g2)
	require.Equal(t, s1, s2)
	require.Equal(t, l1, l2)
}

func TestTailQuantileGammaZero(t *testing.T) {
	tl, err := New(10, nil)
	require.NoError(t, err)
	tl.gamma = 0.0
	tl.sigma = 1.0

	// -sigma * log(q/s) = -log(0.1).
	q := tl.Quantile(0.1, 0.01)
	require.InDelta(t, 2.302585092994046, q, 1e-9)
}

func TestTailQuantileGammaNonzero(t *testing.T) {
	tl, err := New(10, nil)
	require.NoError(t, err)
	tl.gamma = 0.1
	tl.sigma = 1.0

	// (sigma/gamma) * ((q/s)^-gamma - 1) = 10 * (10^0.1 - 1).
	q := tl.Quantile(0.1, 0.01)
	require.InDelta(t, 2.589254117941673, q, 1e-9)
}

func TestTailProbabilityGammaZero(t *testing.T) {
	tl, err := New(10, nil)
	require.NoError(t, err)
	tl.gamma = 0.0
	tl.sigma = 1.0

	// s * exp(-d/sigma) = 0.1 * exp(-2).
	p := tl.Probability(0.1, 2.0)
	require.InDelta(t, 0.013533528323661, p, 1e-9)
}

func TestTailProbabilityGammaNonzero(t *testing.T) {
	tl, err := New(10, nil)
	require.NoError(t, err)
	tl.gamma = 0.1
	tl.sigma = 1.0

	// s * (1 + d*gamma/sigma)^(-1/gamma) = 0.1 * 1.2^-10.
	p := tl.Probability(0.1, 2.0)
	require.InDelta(t, 0.016150558288984573, p, 1e-9)
}

func TestTailInvalidParameters(t *testing.T) {
	tl, err := New(10, nil)
	require.NoError(t, err)
	tl.gamma = 0.1
	tl.sigma = 0.0

	require.True(t, math.IsNaN(tl.Quantile(0.1, 0.01)))
	require.True(t, math.IsNaN(tl.Probability(0.1, 2.0)))
}

func TestTailSnapshotRoundtrip(t *testing.T) {
	tl, err := New(20, nil)
	require.NoError(t, err)
	for _, v := range exponentialSample(5, 40) {
		tl.Push(v)
	}
	tl.Fit()

	restored, err := FromSnapshot(tl.Snapshot(), nil)
	require.NoError(t, err)
	require.Equal(t, tl.Gamma(), restored.Gamma())
	require.Equal(t, tl.Sigma(), restored.Sigma())
	require.Equal(t, tl.Size(), restored.Size())

	// Refitting both from the identical window stays bit-identical.
	require.Equal(t, tl.Fit(), restored.Fit())
	require.Equal(t, tl.Gamma(), restored.Gamma())
	require.Equal(t, tl.Sigma(), restored.Sigma())
}

func TestTailQuantileProbabilityInverseProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	seed := time.Now().UnixNano()
	parameters.MinSuccessfulTests = 100
	parameters.SetSeed(seed)

	props := gopter.NewProperties(parameters)
	props.Property(
		"probability(s, quantile(s, q)) recovers q",
		prop.ForAll(
			func(values []float64, s, ratio float64) bool {
				if len(values) < 8 {
					return true
				}
				tl, err := New(len(values), nil)
				if err != nil {
					return false
				}
				for _, v := range values {
					tl.Push(v)
				}
				tl.Fit()
				if math.IsNaN(tl.Sigma()) || tl.Sigma() <= 0.0 {
					return true
				}

				q := ratio * s
				d := tl.Quantile(s, q)
				if math.IsNaN(d) || math.IsInf(d, 0) {
					return true
				}
				p := tl.Probability(s, d)
				return math.Abs(p-q) <= 1e-6*q
			},
			gen.SliceOf(gen.Float64Range(0.01, 10.0)),
			gen.Float64Range(0.01, 0.99),
			gen.Float64Range(0.01, 0.99),
		),
	)

	reporter := gopter.NewFormatedReporter(true, 160, os.Stdout)
	if !props.Run(reporter) {
		t.Errorf("failed with initial seed: %d", seed)
	}
}
