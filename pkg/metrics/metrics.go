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

// Package metrics provides Prometheus instrumentation for key pair generation.
// The CLI is short lived, so metrics are written to a textfile for the node
// exporter instead of being served.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all keypairgen metrics
	Namespace = "keypairgen"

	// Label names
	LabelOperation = "operation"
	LabelAlgorithm = "algorithm"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
	LabelParameter = "parameter"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpInitialize = "initialize"
	OpGenerate   = "generate"
	OpEncode     = "encode"
	OpDecode     = "decode"
	OpStore      = "store"
	OpLoad       = "load"
	OpDelete     = "delete"
)

var (
	// OperationsTotal counts operations by type, algorithm, and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of operations by type, algorithm, and status",
		},
		[]string{LabelOperation, LabelAlgorithm, LabelStatus},
	)

	// OperationDuration tracks operation latency in seconds. DH generation
	// over large groups dominates the upper buckets.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of operations in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{LabelOperation, LabelAlgorithm},
	)

	// ErrorsTotal counts failures by operation, algorithm, and error type.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation, algorithm, and error type",
		},
		[]string{LabelOperation, LabelAlgorithm, LabelErrorType},
	)

	// KeyPairsTotal counts generated key pairs by algorithm and curve or
	// group size.
	KeyPairsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "key_pairs_total",
			Help:      "Total number of key pairs generated by algorithm and parameter",
		},
		[]string{LabelAlgorithm, LabelParameter},
	)

	// EnabledCurves is the number of curves in the most recently built
	// capability registry.
	EnabledCurves = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "enabled_curves",
			Help:      "Number of named curves supported by the primitives engine",
		},
	)

	enabled atomic.Bool
)

func init() {
	enabled.Store(true)
}

// RecordOperation records an operation with its duration and status.
//
// Example:
//
//	start := time.Now()
//	err := gen.Initialize(spec)
//	status := StatusSuccess
//	if err != nil {
//	    status = StatusError
//	}
//	RecordOperation(OpInitialize, "EC", status, time.Since(start).Seconds())
func RecordOperation(operation, algorithm, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, algorithm, status).Inc()
	OperationDuration.WithLabelValues(operation, algorithm).Observe(duration)
}

// RecordError records a failure. errorType should be a stable identifier
// such as "unsupported_parameter" or "generation_failure".
func RecordError(operation, algorithm, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, algorithm, errorType).Inc()
}

// RecordKeyPair counts a generated key pair.
func RecordKeyPair(algorithm, parameter string) {
	if !enabled.Load() {
		return
	}
	KeyPairsTotal.WithLabelValues(algorithm, parameter).Inc()
}

// SetEnabledCurves sets the enabled curve gauge.
func SetEnabledCurves(n int) {
	if !enabled.Load() {
		return
	}
	EnabledCurves.Set(float64(n))
}

// WriteTextfile writes every metric in the default registry to path in
// the Prometheus text format. The file is written atomically.
func WriteTextfile(path string) error {
	return WriteTextfileFrom(path, prometheus.DefaultGatherer)
}

// WriteTextfileFrom writes the metrics gathered from g to path.
func WriteTextfileFrom(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
