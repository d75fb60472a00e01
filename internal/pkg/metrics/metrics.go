// Package metrics defines and registers all custom Prometheus metrics for the
// location tracker. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry at package init through
// promauto; HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "location_tracker"

// ── Ingestion metrics ─────────────────────────────────────────────────────────

// SamplesIngestedTotal counts accepted location samples.
// Labels:
//   - activity: activity classification of the sample ("driving", "unknown", …)
//   - offline: "true" when the sample was replayed from a device offline queue
var SamplesIngestedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "samples_ingested_total",
		Help:      "Total number of location samples persisted.",
	},
	[]string{"activity", "offline"},
)

// IngestErrorsTotal counts rejected or failed ingestions.
// Label:
//   - reason: "validation", "forbidden", "identity_not_found", "persistence"
var IngestErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_errors_total",
		Help:      "Total number of location ingestions that failed.",
	},
	[]string{"reason"},
)

// IngestDedupTotal counts replay deduplication decisions.
// Label:
//   - result: "hit" (already stored) or "miss"
var IngestDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_dedup_total",
		Help:      "Total number of replay deduplication checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// LatestStaleTotal counts samples that did not move the latest-position
// projection because a newer capture was already stored.
var LatestStaleTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "latest_position_stale_total",
		Help:      "Samples older than the stored latest position (projection left unchanged).",
	},
)

// ── Broadcast metrics ─────────────────────────────────────────────────────────

// BroadcastPublishedTotal counts position_updated events handed to the hub.
var BroadcastPublishedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_published_total",
		Help:      "Total number of position_updated events published.",
	},
)

// BroadcastDeliveriesTotal counts per-observer delivery outcomes.
// Label:
//   - result: "delivered" or "dropped" (observer buffer full)
var BroadcastDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_deliveries_total",
		Help:      "Per-observer delivery outcomes for broadcast events.",
	},
	[]string{"result"},
)

// BroadcastBacklogDroppedTotal counts events dropped before reaching the hub
// because the dispatcher shard was full.
var BroadcastBacklogDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_backlog_dropped_total",
		Help:      "Events dropped because the broadcast dispatcher queue was full.",
	},
)

// BroadcastQueueDepth tracks pending events per dispatcher worker.
// Label:
//   - worker_id: numeric worker index
var BroadcastQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "broadcast_queue_depth",
		Help:      "Current number of events pending in each broadcast dispatcher worker.",
	},
	[]string{"worker_id"},
)

// ObserversConnected is the number of open observer sessions on this instance.
var ObserversConnected = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "observers_connected",
		Help:      "Currently connected broadcast observers.",
	},
)

// ── Query metrics ─────────────────────────────────────────────────────────────

// ProximityQueryDuration measures nearby queries end-to-end.
// Label:
//   - outcome: "ok", "empty" or "error"
var ProximityQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "proximity_query_duration_seconds",
		Help:      "Duration of proximity queries including candidate fetch and identity join.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)
