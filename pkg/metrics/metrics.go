// SPDX-FileCopyrightText: 2025 The groundctl authors
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace is the namespace component of the fully qualified metric name
const Namespace = "groundctl"

// DefaultRegistry is the default [prometheus.Registry] for metrics.
var DefaultRegistry = prometheus.NewPedanticRegistry()

var (
	// DriftChecksTotal is a metric, which gets incremented each time a
	// drift check has run, partitioned by outcome.
	DriftChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "drift_checks_total",
			Help:      "Total number of drift checks, partitioned by outcome",
		},
		[]string{"status"},
	)

	// ResourceDrift describes the per-resource drift gauge. The gauge is 1
	// when the resource diverged from its declaration and 0 when it is in
	// sync. Metrics for this descriptor are emitted via [DefaultCollector].
	ResourceDrift = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "", "resource_drift"),
		"Whether the resource diverged from its declaration",
		[]string{"resource_kind", "resource_name", "action"},
		nil,
	)

	// DriftedResources describes the gauge with the total number of
	// diverged resources of the last drift check.
	DriftedResources = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "", "drifted_resources"),
		"Number of diverged resources at the last drift check",
		nil,
		nil,
	)

	// DriftCheckDuration describes the gauge with the duration of the last
	// drift check in seconds.
	DriftCheckDuration = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "", "drift_check_duration_seconds"),
		"Duration of the last drift check in seconds",
		nil,
		nil,
	)

	// DriftLastCheckTimestamp describes the gauge with the unix timestamp
	// of the last completed drift check.
	DriftLastCheckTimestamp = prometheus.NewDesc(
		prometheus.BuildFQName(Namespace, "", "drift_last_check_timestamp_seconds"),
		"Unix timestamp of the last completed drift check",
		nil,
		nil,
	)
)

// NewServer returns a new [http.Server] which can serve the metrics from
// [DefaultRegistry] on the specified network address and HTTP path. Callers
// are responsible for starting up and shutting down the HTTP server.
func NewServer(addr, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(
		path,
		promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{}),
	)

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: time.Second * 30,
		Handler:           mux,
	}

	return server
}

// init registers collectors with the [DefaultRegistry].
func init() {
	DefaultCollector.AddDesc(
		ResourceDrift,
		DriftedResources,
		DriftCheckDuration,
		DriftLastCheckTimestamp,
	)

	DefaultRegistry.MustRegister(
		// Drift metrics
		DriftChecksTotal,
		DefaultCollector,

		// Standard Go metrics
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}
