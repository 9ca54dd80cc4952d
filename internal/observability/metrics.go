// Package observability wires logging, metrics and HTTP middleware.
package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"itmscope/internal/common"
	"itmscope/internal/ocsd"
)

var (
	registerOnce sync.Once

	decoderBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "itmscope",
			Subsystem: "decoder",
			Name:      "bytes_total",
			Help:      "Trace bytes fed to the ITM decoder.",
		},
	)
	decoderOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itmscope",
			Subsystem: "decoder",
			Name:      "outcomes_total",
			Help:      "Non-value decoder outcomes by code.",
		},
		[]string{"code"},
	)
	decoderValues = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itmscope",
			Subsystem: "decoder",
			Name:      "values_total",
			Help:      "Decoded values by stimulus port.",
		},
		[]string{"port"},
	)
	sessionConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "itmscope",
			Subsystem: "session",
			Name:      "connected",
			Help:      "1 while a trace source is open.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itmscope",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "itmscope",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// label values are fixed sets; build them once
	portLabels [ocsd.NumPorts]string
)

func init() {
	for i := range portLabels {
		portLabels[i] = strconv.Itoa(i)
	}
}

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(decoderBytes, decoderOutcomes, decoderValues, sessionConnected, httpRequests, httpDuration)
	})
}

func RecordBytes(n int) {
	RegisterMetrics()
	decoderBytes.Add(float64(n))
}

func RecordOutcome(code ocsd.Err) {
	RegisterMetrics()
	decoderOutcomes.WithLabelValues(common.CodeName(code)).Inc()
}

func RecordValues(port uint8, n int) {
	RegisterMetrics()
	if int(port) >= len(portLabels) {
		return
	}
	decoderValues.WithLabelValues(portLabels[port]).Add(float64(n))
}

func SetConnected(connected bool) {
	RegisterMetrics()
	if connected {
		sessionConnected.Set(1)
		return
	}
	sessionConnected.Set(0)
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
