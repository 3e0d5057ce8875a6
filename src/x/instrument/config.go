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

package instrument

import (
	"fmt"
	"io"
	"time"

	"github.com/uber-go/tally"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfiguration configures the process logger.
type LoggingConfiguration struct {
	File   string                 `json:"file" yaml:"file"`
	Level  string                 `json:"level" yaml:"level"`
	Fields map[string]interface{} `json:"fields" yaml:"fields"`
}

// BuildLogger builds a new zap logger based on the configuration.
func (cfg LoggingConfiguration) BuildLogger() (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Sampling = nil

	if cfg.File != "" {
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, cfg.File)
	}

	if cfg.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	zapCfg.InitialFields = cfg.Fields

	return zapCfg.Build()
}

// MetricsConfiguration configures the process root metrics scope.
type MetricsConfiguration struct {
	Prefix         string        `json:"prefix" yaml:"prefix"`
	SamplingRate   float64       `json:"samplingRate" yaml:"samplingRate"`
	ReportInterval time.Duration `json:"reportInterval" yaml:"reportInterval"`
}

// NewRootScope creates a root metrics scope based on the configuration.
func (cfg MetricsConfiguration) NewRootScope() (tally.Scope, io.Closer, error) {
	if rate := cfg.SamplingRate; rate < 0.0 || rate > 1.0 {
		return nil, nil, fmt.Errorf("invalid metrics sampling rate %f", rate)
	}

	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix: cfg.Prefix,
	}, cfg.ReportIntervalOrDefault())
	return scope, closer, nil
}

// SampleRate returns the metrics sampling rate, defaulted when unset.
func (cfg MetricsConfiguration) SampleRate() float64 {
	if cfg.SamplingRate > 0.0 {
		return cfg.SamplingRate
	}
	return defaultSamplingRate
}

// ReportIntervalOrDefault returns the metrics reporting interval, defaulted
// when unset.
func (cfg MetricsConfiguration) ReportIntervalOrDefault() time.Duration {
	if cfg.ReportInterval > 0 {
		return cfg.ReportInterval
	}
	return defaultReportInterval
}
