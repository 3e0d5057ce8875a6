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

import (
	"fmt"

	"github.com/m3db/spot/src/spot/peaks"
	"github.com/m3db/spot/src/spot/ring"
	"github.com/m3db/spot/src/spot/tail"
	xjson "github.com/m3db/spot/src/x/json"
)

// The snapshot is a flat JSON record of the full detector state. Non-finite
// floats are encoded as the strings "NaN", "Infinity" and "-Infinity".
type snapshotRecord struct {
	Q                xjson.Float64 `json:"q"`
	Level            xjson.Float64 `json:"level"`
	LowTail          bool          `json:"low_tail"`
	DiscardAnomalies bool          `json:"discard_anomalies"`
	UpDown           xjson.Float64 `json:"up_down"`
	AnomalyThreshold xjson.Float64 `json:"anomaly_threshold"`
	ExcessThreshold  xjson.Float64 `json:"excess_threshold"`
	N                int           `json:"n"`
	Nt               int           `json:"nt"`
	Tail             tailRecord    `json:"tail"`
}

type tailRecord struct {
	Gamma xjson.Float64 `json:"gamma"`
	Sigma xjson.Float64 `json:"sigma"`
	Peaks peaksRecord   `json:"peaks"`
}

type peaksRecord struct {
	E         xjson.Float64   `json:"e"`
	E2        xjson.Float64   `json:"e2"`
	Min       xjson.Float64   `json:"min"`
	Max       xjson.Float64   `json:"max"`
	Container containerRecord `json:"container"`
}

type containerRecord struct {
	Cursor   int             `json:"cursor"`
	Capacity int             `json:"capacity"`
	Filled   bool            `json:"filled"`
	Data     []xjson.Float64 `json:"data"`
}

// Snapshot serializes the full detector state so the stream can be resumed
// by RestoreDetector in another process.
func (d *Detector) Snapshot() ([]byte, error) {
	tailSnap := d.tail.Snapshot()

	data := make([]xjson.Float64, 0, len(tailSnap.Peaks.Buffer.Data))
	for _, v := range tailSnap.Peaks.Buffer.Data {
		data = append(data, xjson.Float64(v))
	}

	return xjson.Marshal(snapshotRecord{
		Q:                xjson.Float64(d.q),
		Level:            xjson.Float64(d.level),
		LowTail:          d.low,
		DiscardAnomalies: d.discardAnomalies,
		UpDown:           xjson.Float64(d.upDown),
		AnomalyThreshold: xjson.Float64(d.anomalyThreshold),
		ExcessThreshold:  xjson.Float64(d.excessThreshold),
		N:                d.n,
		Nt:               d.nt,
		Tail: tailRecord{
			Gamma: xjson.Float64(tailSnap.Gamma),
			Sigma: xjson.Float64(tailSnap.Sigma),
			Peaks: peaksRecord{
				E:   xjson.Float64(tailSnap.Peaks.E),
				E2:  xjson.Float64(tailSnap.Peaks.E2),
				Min: xjson.Float64(tailSnap.Peaks.Min),
				Max: xjson.Float64(tailSnap.Peaks.Max),
				Container: containerRecord{
					Cursor:   tailSnap.Peaks.Buffer.Cursor,
					Capacity: tailSnap.Peaks.Buffer.Capacity,
					Filled:   tailSnap.Peaks.Buffer.Filled,
					Data:     data,
				},
			},
		},
	})
}

// RestoreDetector rebuilds a detector from a snapshot, revalidating the
// embedded configuration and structure. A nil opts selects the default
// options.
func RestoreDetector(data []byte, opts Options) (*Detector, error) {
	if opts == nil {
		opts = NewOptions()
	}

	var record snapshotRecord
	if err := xjson.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	cfg := Config{
		Q:                float64(record.Q),
		Level:            float64(record.Level),
		MaxExcess:        record.Tail.Peaks.Container.Capacity,
		LowTail:          record.LowTail,
		DiscardAnomalies: record.DiscardAnomalies,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	upDown := 1.0
	if record.LowTail {
		upDown = -1.0
	}
	if float64(record.UpDown) != upDown {
		return nil, fmt.Errorf("%w: orientation %v does not match low_tail=%v",
			ErrCorruptSnapshot, float64(record.UpDown), record.LowTail)
	}
	if record.N < 0 || record.Nt < 0 || record.Nt > record.N {
		return nil, fmt.Errorf("%w: counters n=%d nt=%d",
			ErrCorruptSnapshot, record.N, record.Nt)
	}

	values := make([]float64, 0, len(record.Tail.Peaks.Container.Data))
	for _, v := range record.Tail.Peaks.Container.Data {
		values = append(values, float64(v))
	}
	tl, err := tail.FromSnapshot(tail.Snapshot{
		Gamma: float64(record.Tail.Gamma),
		Sigma: float64(record.Tail.Sigma),
		Peaks: peaks.Snapshot{
			E:   float64(record.Tail.Peaks.E),
			E2:  float64(record.Tail.Peaks.E2),
			Min: float64(record.Tail.Peaks.Min),
			Max: float64(record.Tail.Peaks.Max),
			Buffer: ring.Snapshot{
				Cursor:   record.Tail.Peaks.Container.Cursor,
				Capacity: record.Tail.Peaks.Container.Capacity,
				Filled:   record.Tail.Peaks.Container.Filled,
				Data:     values,
			},
		},
	}, opts.MathBackend())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	iopts := opts.InstrumentOptions()
	return &Detector{
		q:                cfg.Q,
		level:            cfg.Level,
		discardAnomalies: cfg.DiscardAnomalies,
		low:              cfg.LowTail,
		upDown:           upDown,
		anomalyThreshold: float64(record.AnomalyThreshold),
		excessThreshold:  float64(record.ExcessThreshold),
		n:                record.N,
		nt:               record.Nt,
		tail:             tl,
		logger:           iopts.Logger(),
		metrics:          newDetectorMetrics(iopts.MetricsScope()),
	}, nil
}
