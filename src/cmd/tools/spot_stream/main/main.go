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

// spot_stream runs SPOT detectors over synthetic data streams. Each stream
// draws from its own deterministic generator, is calibrated on a training
// prefix and then classifies observations one at a time, optionally
// persisting detector snapshots so a later run resumes where it left off.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/m3db/spot/src/spot"
	xconfig "github.com/m3db/spot/src/x/config"
	"github.com/m3db/spot/src/x/instrument"
	xmath "github.com/m3db/spot/src/x/math"
	xsync "github.com/m3db/spot/src/x/sync"

	"github.com/MichaelTJones/pcg"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	generatorExponential = "exponential"
	generatorUniform     = "uniform"
	generatorGaussian    = "gaussian"

	defaultSpikeScale = 10.0
)

type configuration struct {
	// Logging configures the tool logger.
	Logging instrument.LoggingConfiguration `yaml:"logging"`

	// Metrics configures the metrics root scope.
	Metrics instrument.MetricsConfiguration `yaml:"metrics"`

	// Detector configures every stream detector; empty selects defaults.
	Detector spot.Config `yaml:"detector"`

	// Streams configures the synthetic streams.
	Streams streamsConfiguration `yaml:"streams"`

	// SnapshotDir, when set, restores detectors from per-stream snapshot
	// files before running and persists them afterwards.
	SnapshotDir string `yaml:"snapshotDir"`

	// MathBackend selects the floating point backend, portable or native.
	MathBackend string `yaml:"mathBackend"`

	// Workers bounds how many streams run concurrently, default NumCPU.
	Workers int `yaml:"workers"`
}

type streamsConfiguration struct {
	// Count is the number of independent streams.
	Count int `yaml:"count" validate:"min=1"`

	// Seed seeds every stream generator; each stream runs its own sequence.
	Seed uint64 `yaml:"seed"`

	// Training is the number of observations used to calibrate.
	Training int `yaml:"training" validate:"min=5"`

	// Steps is the number of observations classified after calibration.
	Steps int `yaml:"steps" validate:"min=1"`

	// Generator is one of exponential, uniform or gaussian.
	Generator string `yaml:"generator"`

	// SpikeEvery scales every n-th observation to manufacture anomalies,
	// zero disables injection.
	SpikeEvery int `yaml:"spikeEvery"`

	// SpikeScale is the factor applied to injected spikes.
	SpikeScale float64 `yaml:"spikeScale"`
}

func main() {
	configFile := flag.String("f", "config/spot_stream.yml", "configuration file")
	flag.Parse()

	if len(*configFile) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	var cfg configuration
	if err := xconfig.LoadFile(&cfg, *configFile); err != nil {
		fmt.Printf("error loading config file: %v\n", err)
		os.Exit(1)
	}
	if cfg.Detector == (spot.Config{}) {
		cfg.Detector = spot.NewDefaultConfig()
	}

	logger, err := cfg.Logging.BuildLogger()
	if err != nil {
		fmt.Printf("error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	scope, closer, err := cfg.Metrics.NewRootScope()
	if err != nil {
		logger.Fatal("error creating metrics root scope", zap.Error(err))
	}
	defer closer.Close()

	instrumentOpts := instrument.NewOptions().
		SetLogger(logger).
		SetMetricsScope(scope).
		SetMetricsSamplingRate(cfg.Metrics.SampleRate()).
		SetReportInterval(cfg.Metrics.ReportIntervalOrDefault())

	backend := xmath.Portable
	switch cfg.MathBackend {
	case "", "portable":
	case "native":
		backend = xmath.Native
	default:
		logger.Fatal("unknown math backend", zap.String("mathBackend", cfg.MathBackend))
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	pool := xsync.NewWorkerPool(workers)
	pool.Init()

	var (
		wg           sync.WaitGroup
		totalNormal  = atomic.NewInt64(0)
		totalExcess  = atomic.NewInt64(0)
		totalAnomaly = atomic.NewInt64(0)
		failed       = atomic.NewInt64(0)
	)

	results := make([]streamResult, cfg.Streams.Count)
	start := time.Now()
	for i := 0; i < cfg.Streams.Count; i++ {
		i := i
		streamScope := scope.Tagged(map[string]string{
			"stream": strconv.Itoa(i),
		})
		opts := spot.NewOptions().
			SetInstrumentOptions(instrumentOpts.SetMetricsScope(streamScope)).
			SetMathBackend(backend)
		wg.Add(1)
		pool.Go(func() {
			defer wg.Done()
			res, err := runStream(i, cfg, opts, logger)
			if err != nil {
				failed.Inc()
				logger.Error("stream failed", zap.Int("stream", i), zap.Error(err))
				return
			}
			results[i] = res
			totalNormal.Add(int64(res.normal))
			totalExcess.Add(int64(res.excess))
			totalAnomaly.Add(int64(res.anomaly))
		})
	}
	wg.Wait()

	if n := failed.Load(); n > 0 {
		logger.Fatal("streams failed", zap.Int64("failed", n))
	}

	for i, res := range results {
		gamma, sigma := res.detector.TailParameters()
		logger.Info("stream complete",
			zap.Int("stream", i),
			zap.Int("normal", res.normal),
			zap.Int("excess", res.excess),
			zap.Int("anomaly", res.anomaly),
			zap.Float64("excessThreshold", res.detector.ExcessThreshold()),
			zap.Float64("anomalyThreshold", res.detector.AnomalyThreshold()),
			zap.Float64("gamma", gamma),
			zap.Float64("sigma", sigma),
		)
	}

	logger.Info("all streams complete",
		zap.Int("streams", cfg.Streams.Count),
		zap.Int64("normal", totalNormal.Load()),
		zap.Int64("excess", totalExcess.Load()),
		zap.Int64("anomaly", totalAnomaly.Load()),
		zap.Duration("took", time.Since(start)),
	)

	if cfg.SnapshotDir != "" {
		if err := writeSnapshots(cfg.SnapshotDir, results); err != nil {
			logger.Fatal("error writing snapshots", zap.Error(err))
		}
		logger.Info("wrote detector snapshots", zap.String("dir", cfg.SnapshotDir))
	}
}

type streamResult struct {
	normal   int
	excess   int
	anomaly  int
	detector *spot.Detector
}

func runStream(id int, cfg configuration, opts spot.Options, logger *zap.Logger) (streamResult, error) {
	var res streamResult

	kind := cfg.Streams.Generator
	if kind == "" {
		kind = generatorExponential
	}
	gen, err := newGenerator(kind, cfg.Streams.Seed, uint64(id))
	if err != nil {
		return res, err
	}

	snapshotFile := ""
	if cfg.SnapshotDir != "" {
		snapshotFile = filepath.Join(cfg.SnapshotDir, fmt.Sprintf("stream-%d.json", id))
	}

	var d *spot.Detector
	if snapshotFile != "" {
		blob, err := ioutil.ReadFile(snapshotFile)
		if err == nil {
			d, err = spot.RestoreDetector(blob, opts)
			if err != nil {
				return res, errors.Wrapf(err, "stream %d: restoring snapshot %s", id, snapshotFile)
			}
			logger.Info("restored detector from snapshot",
				zap.Int("stream", id),
				zap.String("file", snapshotFile),
				zap.Int("n", d.N()),
			)
		} else if !os.IsNotExist(err) {
			return res, errors.Wrapf(err, "stream %d: reading snapshot %s", id, snapshotFile)
		}
	}
	if d == nil {
		d, err = spot.NewDetector(cfg.Detector, opts)
		if err != nil {
			return res, errors.Wrapf(err, "stream %d: creating detector", id)
		}
		training := make([]float64, cfg.Streams.Training)
		for i := range training {
			training[i] = gen.next()
		}
		if err := d.Fit(training); err != nil {
			return res, errors.Wrapf(err, "stream %d: calibrating detector", id)
		}
	}
	res.detector = d

	spikeScale := cfg.Streams.SpikeScale
	if spikeScale == 0 {
		spikeScale = defaultSpikeScale
	}

	for i := 0; i < cfg.Streams.Steps; i++ {
		x := gen.next()
		if cfg.Streams.SpikeEvery > 0 && (i+1)%cfg.Streams.SpikeEvery == 0 {
			x *= spikeScale
		}
		status, err := d.Step(x)
		if err != nil {
			return res, errors.Wrapf(err, "stream %d: step %d", id, i)
		}
		switch status {
		case spot.StatusAnomaly:
			res.anomaly++
			logger.Debug("anomaly",
				zap.Int("stream", id),
				zap.Float64("value", x),
				zap.Float64("anomalyThreshold", d.AnomalyThreshold()),
			)
		case spot.StatusExcess:
			res.excess++
		default:
			res.normal++
		}
	}
	return res, nil
}

func writeSnapshots(dir string, results []streamResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for i, res := range results {
		blob, err := res.detector.Snapshot()
		if err != nil {
			return errors.Wrapf(err, "snapshotting stream %d", i)
		}
		file := filepath.Join(dir, fmt.Sprintf("stream-%d.json", i))
		if err := ioutil.WriteFile(file, blob, 0644); err != nil {
			return errors.Wrapf(err, "writing snapshot %s", file)
		}
	}
	return nil
}

type generator struct {
	kind string
	rng  *pcg.PCG32
}

func newGenerator(kind string, seed, stream uint64) (*generator, error) {
	switch kind {
	case generatorExponential, generatorUniform, generatorGaussian:
	default:
		return nil, fmt.Errorf("unknown generator %q", kind)
	}
	return &generator{kind: kind, rng: pcg.NewPCG32().Seed(seed, stream)}, nil
}

// float64 returns a uniform draw from [0, 1) built from 53 random bits.
func (g *generator) float64() float64 {
	hi := uint64(g.rng.Random())
	lo := uint64(g.rng.Random())
	return float64((hi<<32|lo)>>11) / (1 << 53)
}

func (g *generator) next() float64 {
	switch g.kind {
	case generatorUniform:
		return g.float64()
	case generatorGaussian:
		u1, u2 := g.float64(), g.float64()
		return math.Sqrt(-2.0*math.Log(1.0-u1)) * math.Cos(2.0*math.Pi*u2)
	default:
		return -math.Log(1.0 - g.float64())
	}
}
