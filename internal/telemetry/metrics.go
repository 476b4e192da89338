/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP surface metrics, recorded by MetricsMiddleware.
var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotbuilder_api_requests_total",
		Help: "Total API requests by method, endpoint, and status code.",
	}, []string{"method", "endpoint", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shotbuilder_api_request_duration_seconds",
		Help:    "API request latency by method, endpoint, and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shotbuilder_api_active_connections",
		Help: "In-flight API requests.",
	})
)

// Timeline engine metrics.
var (
	ProjectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotbuilder_projections_total",
		Help: "Schedule projections built, by mode.",
	}, []string{"mode"})

	CascadePatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotbuilder_cascade_patches_total",
		Help: "Patches emitted by cascade operations, by operation.",
	}, []string{"operation"})

	ConflictsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shotbuilder_conflicts_detected_total",
		Help: "Track overlap conflicts found by conflict scans.",
	})

	ProjectionCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotbuilder_projection_cache_requests_total",
		Help: "Projection cache lookups, by result (hit, miss, error, skipped).",
	}, []string{"result"})
)

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
