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

package ring

import (
	"os"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestNewBufferInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, -100} {
		_, err := NewBuffer(capacity)
		require.Error(t, err)
		require.Equal(t, ErrInvalidCapacity, err)
	}
}

func TestBufferPushBeforeWrap(t *testing.T) {
	b, err := NewBuffer(3)
	require.NoError(t, err)
	require.Equal(t, 0, b.Size())
	require.False(t, b.Filled())

	_, evicted := b.Push(1.0)
	require.False(t, evicted)
	require.Equal(t, 1, b.Size())
	require.False(t, b.Filled())

	_, evicted = b.Push(2.0)
	require.False(t, evicted)
	require.Equal(t, 2, b.Size())

	_, evicted = b.Push(3.0)
	require.False(t, evicted)
	require.Equal(t, 3, b.Size())
	require.True(t, b.Filled())
}

func TestBufferPushAfterWrap(t *testing.T) {
	b, err := NewBuffer(3)
	require.NoError(t, err)
	b.Push(1.0)
	b.Push(2.0)
	b.Push(3.0)

	v, evicted := b.Push(4.0)
	require.True(t, evicted)
	require.Equal(t, 1.0, v)
	require.Equal(t, 3, b.Size())

	v, evicted = b.Push(5.0)
	require.True(t, evicted)
	require.Equal(t, 2.0, v)
	require.Equal(t, 3, b.Size())
}

func TestBufferGet(t *testing.T) {
	b, err := NewBuffer(3)
	require.NoError(t, err)

	_, ok := b.Get(0)
	require.False(t, ok)

	b.Push(10.0)
	b.Push(20.0)

	v, ok := b.Get(0)
	require.True(t, ok)
	require.Equal(t, 10.0, v)
	v, ok = b.Get(1)
	require.True(t, ok)
	require.Equal(t, 20.0, v)
	_, ok = b.Get(2)
	require.False(t, ok)
	_, ok = b.Get(-1)
	require.False(t, ok)

	b.Push(30.0)
	b.Push(40.0)

	expected := []float64{20.0, 30.0, 40.0}
	for i, want := range expected {
		v, ok := b.Get(i)
		require.True(t, ok)
		require.Equal(t, want, v)
	}
}

func TestBufferValues(t *testing.T) {
	b, err := NewBuffer(3)
	require.NoError(t, err)
	require.Empty(t, b.Values(nil))

	b.Push(1.0)
	b.Push(2.0)
	require.Equal(t, []float64{1.0, 2.0}, b.Values(nil))

	b.Push(3.0)
	b.Push(4.0)
	require.Equal(t, []float64{2.0, 3.0, 4.0}, b.Values(nil))
}

func TestBufferEachSlotOrder(t *testing.T) {
	b, err := NewBuffer(3)
	require.NoError(t, err)
	for _, v := range []float64{1.0, 2.0, 3.0, 4.0} {
		b.Push(v)
	}

	// After wrapping, slot order differs from insertion order.
	var got []float64
	b.Each(func(v float64) { got = append(got, v) })
	require.Equal(t, []float64{4.0, 2.0, 3.0}, got)
	require.Equal(t, []float64{2.0, 3.0, 4.0}, b.Values(nil))
}

func TestBufferSnapshotRoundtrip(t *testing.T) {
	b, err := NewBuffer(4)
	require.NoError(t, err)
	for _, v := range []float64{1.5, 2.5, 3.5, 4.5, 5.5, 6.5} {
		b.Push(v)
	}

	restored, err := FromSnapshot(b.Snapshot())
	require.NoError(t, err)
	require.Equal(t, b.Size(), restored.Size())
	require.Equal(t, b.Values(nil), restored.Values(nil))

	// Restored buffer evicts in the same order as the original.
	wantV, wantOK := b.Push(7.5)
	gotV, gotOK := restored.Push(7.5)
	require.Equal(t, wantOK, gotOK)
	require.Equal(t, wantV, gotV)
}

func TestFromSnapshotInvalid(t *testing.T) {
	tests := []struct {
		name     string
		snapshot Snapshot
	}{
		{
			name:     "zero capacity",
			snapshot: Snapshot{Capacity: 0},
		},
		{
			name:     "slot count mismatch",
			snapshot: Snapshot{Capacity: 3, Data: []float64{1.0}},
		},
		{
			name:     "cursor out of range",
			snapshot: Snapshot{Capacity: 2, Cursor: 2, Data: []float64{1.0, 2.0}},
		},
		{
			name:     "negative cursor",
			snapshot: Snapshot{Capacity: 2, Cursor: -1, Data: []float64{1.0, 2.0}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromSnapshot(tt.snapshot)
			require.Error(t, err)
		})
	}
}

func TestBufferPropertyMatchesReference(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	seed := time.Now().UnixNano()
	parameters.MinSuccessfulTests = 200
	parameters.SetSeed(seed)

	props := gopter.NewProperties(parameters)
	props.Property(
		"pushes agree with a plain slice model",
		prop.ForAll(
			func(capacity int, values []float64) (bool, error) {
				b, err := NewBuffer(capacity)
				if err != nil {
					return false, err
				}
				for i, v := range values {
					evicted, ok := b.Push(v)
					if i < capacity {
						if ok {
							return false, nil
						}
					} else {
						if !ok || evicted != values[i-capacity] {
							return false, nil
						}
					}
				}

				size := len(values)
				if size > capacity {
					size = capacity
				}
				if b.Size() != size {
					return false, nil
				}

				want := values[len(values)-size:]
				got := b.Values(nil)
				for i := range want {
					if got[i] != want[i] {
						return false, nil
					}
				}
				return true, nil
			},
			gen.IntRange(1, 64),
			gen.SliceOf(gen.Float64Range(-1e6, 1e6)),
		),
	)

	reporter := gopter.NewFormatedReporter(true, 160, os.Stdout)
	if !props.Run(reporter) {
		t.Errorf("failed with initial seed: %d", seed)
	}
}
