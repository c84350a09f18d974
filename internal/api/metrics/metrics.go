// Package metrics defines all custom Prometheus metrics for the logistics
// engine. It is the single source of truth for metric names, labels, and
// help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "logistics"

// ── Matching metrics ──────────────────────────────────────────────────────────

// MatchRequestsTotal counts ranking requests.
// Label:
//   - outcome: "ok" or "error"
var MatchRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "match_requests_total",
		Help:      "Total number of load-matching requests, by outcome.",
	},
	[]string{"outcome"},
)

// MatchScoreDistribution observes the final score of every ranked load.
var MatchScoreDistribution = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "match_score",
		Help:      "Distribution of computed match scores.",
		Buckets:   []float64{40, 70, 100, 120, 140, 170, 200, 240},
	},
)

// ── Routing metrics ───────────────────────────────────────────────────────────

// RoutesPlannedTotal counts route optimization calls.
var RoutesPlannedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "routes_planned_total",
		Help:      "Total number of routes sequenced.",
	},
)

// RouteStops observes how many stops each planned route carried.
var RouteStops = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "route_stops",
		Help:      "Number of stops per planned route.",
		Buckets:   []float64{1, 2, 3, 5, 8, 12, 20},
	},
)

// ── Trip metrics ──────────────────────────────────────────────────────────────

// TripsStartedTotal counts trips whose tracking began.
var TripsStartedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trips_started_total",
		Help:      "Total number of trips for which tracking was started.",
	},
)

// PositionSamplesTotal counts ingested GPS samples.
// Label:
//   - result: "applied", "unknown_trip", or "invalid"
var PositionSamplesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "position_samples_total",
		Help:      "Total number of position samples received, by result.",
	},
	[]string{"result"},
)

// ── Alert metrics ─────────────────────────────────────────────────────────────

// AlertsEmittedTotal counts alerts delivered to the gateway.
// Label:
//   - kind: alert kind (e.g. "arriving_soon", "delayed")
var AlertsEmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_emitted_total",
		Help:      "Total number of alert triggers delivered to the gateway, by kind.",
	},
	[]string{"kind"},
)

// AlertsFailedTotal counts alerts the gateway rejected.
// Label:
//   - kind: alert kind
var AlertsFailedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_failed_total",
		Help:      "Total number of alert deliveries that failed, by kind.",
	},
	[]string{"kind"},
)

// AlertsDroppedTotal counts alerts dropped because a worker queue was full.
// Label:
//   - kind: alert kind
var AlertsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_dropped_total",
		Help:      "Total number of alerts dropped due to a full dispatch queue, by kind.",
	},
	[]string{"kind"},
)

// AlertQueueDepth tracks the current number of alerts waiting in each
// dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AlertQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "alert_queue_depth",
		Help:      "Current number of alerts pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
