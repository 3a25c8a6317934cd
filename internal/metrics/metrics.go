// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics defines the Prometheus instrumentation for RiskWatch.
// All collectors are registered with the default registry via promauto and
// exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AlertsIngested counts ingested alerts by outcome (new or duplicate).
	AlertsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskwatch_alerts_ingested_total",
		Help: "Total alerts ingested, by dedup outcome.",
	}, []string{"outcome"})

	// EnrichmentResults counts enrichment completions by result
	// (success, fallback, dropped).
	EnrichmentResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskwatch_enrichment_results_total",
		Help: "Total enrichment attempts, by result.",
	}, []string{"result"})

	// EnrichmentQueueDepth tracks pending enrichment jobs.
	EnrichmentQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "riskwatch_enrichment_queue_depth",
		Help: "Number of alerts waiting for oracle enrichment.",
	})

	// OracleRequestDuration observes oracle round-trip latency.
	OracleRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "riskwatch_oracle_request_duration_seconds",
		Help:    "Oracle assessment request latency.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	})

	// HTTPRequestDuration observes API latency by route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "riskwatch_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	// WebsocketClients tracks connected dashboard clients.
	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "riskwatch_websocket_clients",
		Help: "Currently connected websocket clients.",
	})

	// WebsocketDroppedEvents counts events dropped due to backpressure.
	WebsocketDroppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskwatch_websocket_dropped_events_total",
		Help: "Events dropped because the broadcast queue was full.",
	})
)
