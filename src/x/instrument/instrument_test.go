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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
)

func TestNewOptionsDefaults(t *testing.T) {
	opts := NewOptions()
	require.NotNil(t, opts.Logger())
	require.Equal(t, tally.NoopScope, opts.MetricsScope())
	require.Equal(t, 1.0, opts.MetricsSamplingRate())
	require.Equal(t, time.Second, opts.ReportInterval())
}

func TestOptionsSettersCopy(t *testing.T) {
	opts := NewOptions()

	scope := tally.NewTestScope("test", nil)
	updated := opts.
		SetLogger(zap.NewNop()).
		SetMetricsScope(scope).
		SetMetricsSamplingRate(0.5).
		SetReportInterval(2 * time.Second)

	require.Equal(t, scope, updated.MetricsScope())
	require.Equal(t, 0.5, updated.MetricsSamplingRate())
	require.Equal(t, 2*time.Second, updated.ReportInterval())

	// The original options are unchanged.
	require.Equal(t, tally.NoopScope, opts.MetricsScope())
	require.Equal(t, 1.0, opts.MetricsSamplingRate())
	require.Equal(t, time.Second, opts.ReportInterval())
}

func TestLoggingConfigurationBuildLogger(t *testing.T) {
	logger, err := LoggingConfiguration{}.BuildLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestLoggingConfigurationLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := LoggingConfiguration{Level: level}.BuildLogger()
		require.NoError(t, err, "level %s", level)
		require.NotNil(t, logger)
	}

	_, err := LoggingConfiguration{Level: "noisy"}.BuildLogger()
	require.Error(t, err)
}

func TestLoggingConfigurationFile(t *testing.T) {
	cfg := LoggingConfiguration{
		File:   filepath.Join(t.TempDir(), "test.log"),
		Fields: map[string]interface{}{"service": "test"},
	}
	logger, err := cfg.BuildLogger()
	require.NoError(t, err)
	logger.Info("a line to flush")
	_ = logger.Sync()
}

func TestMetricsConfigurationNewRootScope(t *testing.T) {
	scope, closer, err := MetricsConfiguration{Prefix: "test"}.NewRootScope()
	require.NoError(t, err)
	require.NotNil(t, scope)
	require.NoError(t, closer.Close())
}

func TestMetricsConfigurationInvalidSamplingRate(t *testing.T) {
	_, _, err := MetricsConfiguration{SamplingRate: 1.5}.NewRootScope()
	require.Error(t, err)

	_, _, err = MetricsConfiguration{SamplingRate: -0.1}.NewRootScope()
	require.Error(t, err)
}

func TestMetricsConfigurationDefaults(t *testing.T) {
	cfg := MetricsConfiguration{}
	require.Equal(t, 1.0, cfg.SampleRate())
	require.Equal(t, time.Second, cfg.ReportIntervalOrDefault())

	cfg = MetricsConfiguration{SamplingRate: 0.25, ReportInterval: 5 * time.Second}
	require.Equal(t, 0.25, cfg.SampleRate())
	require.Equal(t, 5*time.Second, cfg.ReportIntervalOrDefault())
}
