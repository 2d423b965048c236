// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics provides Prometheus metrics for the gate and the media indexes.

Metrics are registered on the default registry and exposed at /metrics:

  - gate_rejections_total{stage}: requests short-circuited by a gate stage
  - gate_bans_total{reason}: identifiers promoted to the blacklist
  - gate_reputation_records: live reputation records
  - gate_blacklist_size: identifiers currently blacklisted
  - index_rebuilds_total{kind,result}: index rebuild cycles
  - index_titles{kind,state}: titles per kind, split into good and bad
  - index_rebuild_duration_seconds{kind}: rebuild latency
  - http_requests_total{method,status}: served requests
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gate Metrics
	GateRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_rejections_total",
			Help: "Total number of requests rejected by a gate stage",
		},
		[]string{"stage"}, // "blacklist", "token", "rate_limit"
	)
	GateBans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_bans_total",
			Help: "Total number of identifiers promoted to the blacklist",
		},
		[]string{"reason"}, // "failures", "rate_limit"
	)
	ReputationRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gate_reputation_records",
			Help: "Current number of tracked reputation records",
		},
	)
	BlacklistSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gate_blacklist_size",
			Help: "Current number of blacklisted identifiers",
		},
	)

	// Index Metrics
	IndexRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "index_rebuilds_total",
			Help: "Total number of media index rebuild cycles",
		},
		[]string{"kind", "result"}, // result: "ok", "root_failed"
	)
	IndexTitles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "index_titles",
			Help: "Number of indexed titles per kind and state",
		},
		[]string{"kind", "state"}, // state: "good", "bad"
	)
	IndexRebuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "index_rebuild_duration_seconds",
			Help:    "Duration of media index rebuilds in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	// HTTP Metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of served HTTP requests",
		},
		[]string{"method", "status"},
	)
)
