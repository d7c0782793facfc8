// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncCycles counts finished fetch cycles.
	// Labels:
	//   - kind: record, boardgame, book
	//   - outcome: "success", "failure"
	SyncCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_sync_cycles_total",
			Help: "Total number of completed synchronization cycles",
		},
		[]string{"kind", "outcome"},
	)

	// SyncCycleDuration measures a full collection+wishlist cycle.
	SyncCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collection_sync_cycle_duration_seconds",
			Help:    "Duration of synchronization cycles in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"kind"},
	)

	// SyncItems counts per-item reconciliation outcomes.
	SyncItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_sync_items_total",
			Help: "Items processed by the reconciler, by action",
		},
		[]string{"kind", "partition", "action"},
	)

	// SyncSkippedTicks counts scheduler ticks dropped because a cycle was still running.
	SyncSkippedTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_sync_skipped_ticks_total",
			Help: "Scheduler ticks skipped because the previous cycle was still in progress",
		},
		[]string{"kind"},
	)

	// RateLimitSleeps counts rate limiter induced sleeps.
	RateLimitSleeps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_sync_rate_limit_sleeps_total",
			Help: "Number of sleeps imposed by rate limit policies",
		},
		[]string{"service"},
	)

	// CircuitBreakerState tracks provider breaker state (0 closed, 1 half-open, 2 open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "collection_sync_circuit_breaker_state",
			Help: "Provider circuit breaker state",
		},
		[]string{"name"},
	)

	// AssetDownloads counts artwork downloads.
	// Labels:
	//   - outcome: "success", "failure"
	AssetDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_sync_asset_downloads_total",
			Help: "Artwork downloads by outcome",
		},
		[]string{"outcome"},
	)

	// NotifierSubscribers is the number of attached change subscribers.
	NotifierSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "collection_sync_notifier_subscribers",
			Help: "Currently attached change notification subscribers",
		},
	)

	// NotifierDropped counts events dropped for slow subscribers.
	NotifierDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collection_sync_notifier_dropped_total",
			Help: "Change events dropped because a subscriber buffer was full",
		},
	)
)
