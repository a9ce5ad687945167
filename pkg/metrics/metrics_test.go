// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keypairgen.
//
// go-keypairgen is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEnabled(t *testing.T) {
	assert.True(t, IsEnabled(), "metrics should be enabled by default")

	Disable()
	assert.False(t, IsEnabled())

	Enable()
	assert.True(t, IsEnabled())
}

func TestRecordOperation(t *testing.T) {
	Enable()
	OperationsTotal.Reset()
	OperationDuration.Reset()

	RecordOperation(OpGenerate, "EC", StatusSuccess, 0.002)
	RecordOperation(OpGenerate, "EC", StatusSuccess, 0.003)
	RecordOperation(OpInitialize, "DH", StatusError, 0.0001)

	assert.Equal(t, 2, testutil.CollectAndCount(OperationsTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(OperationsTotal.WithLabelValues(OpGenerate, "EC", StatusSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(OperationsTotal.WithLabelValues(OpInitialize, "DH", StatusError)))
	assert.Equal(t, 2, testutil.CollectAndCount(OperationDuration))
}

func TestRecordOperationWhenDisabled(t *testing.T) {
	Disable()
	defer Enable()
	OperationsTotal.Reset()

	RecordOperation(OpGenerate, "EC", StatusSuccess, 0.5)

	assert.Equal(t, 0, testutil.CollectAndCount(OperationsTotal))
}

func TestRecordError(t *testing.T) {
	Enable()
	ErrorsTotal.Reset()

	RecordError(OpInitialize, "EC", "unsupported_parameter")
	RecordError(OpGenerate, "DH", "generation_failure")

	assert.Equal(t, 2, testutil.CollectAndCount(ErrorsTotal))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(ErrorsTotal.WithLabelValues(OpInitialize, "EC", "unsupported_parameter")))
}

func TestRecordKeyPairAndGauge(t *testing.T) {
	Enable()
	KeyPairsTotal.Reset()

	RecordKeyPair("EC", "secp256r1")
	RecordKeyPair("EC", "secp256r1")
	SetEnabledCurves(5)

	assert.Equal(t, float64(2), testutil.ToFloat64(KeyPairsTotal.WithLabelValues("EC", "secp256r1")))
	assert.Equal(t, float64(5), testutil.ToFloat64(EnabledCurves))
}

func TestWriteTextfileFrom(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "test_total",
		Help:      "test counter",
	})
	reg.MustRegister(counter)
	counter.Add(3)

	path := filepath.Join(t.TempDir(), "keypairgen.prom")
	require.NoError(t, WriteTextfileFrom(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "keypairgen_test_total 3"))
}

func TestWriteTextfile_DefaultGatherer(t *testing.T) {
	Enable()
	RecordOperation(OpEncode, "EC", StatusSuccess, 0.001)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "keypairgen_operations_total")
}
