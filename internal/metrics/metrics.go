// Package metrics registers the Prometheus instruments for the HTTP layer,
// the ingestion pipeline and the dissemination hub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by method, route and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration observes HTTP request latency by method and route.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// RequestsInFlight tracks requests currently being served.
	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently in flight.",
		},
	)

	// SamplesIngested counts location samples by outcome (accepted, rejected).
	SamplesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_samples_ingested_total",
			Help: "Location samples processed by the ingestion pipeline.",
		},
		[]string{"outcome"},
	)

	// GeofenceEvents counts emitted geofence events by type.
	GeofenceEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_geofence_events_total",
			Help: "Geofence events emitted by detection.",
		},
		[]string{"event_type"},
	)

	// HistoryWritesThrottled counts samples skipped by the history throttle.
	HistoryWritesThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracking_history_writes_throttled_total",
			Help: "Samples not written to history because of the throttle interval.",
		},
	)

	// SubscribersConnected tracks live WebSocket subscriptions across rooms.
	SubscribersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dissemination_subscriptions",
			Help: "Active trip-room subscriptions.",
		},
	)

	// BroadcastsDropped counts frames dropped from slow subscriber queues.
	BroadcastsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dissemination_broadcasts_dropped_total",
			Help: "Frames dropped because a subscriber queue overflowed.",
		},
	)

	// RowsPurged counts rows removed by the retention sweeper.
	RowsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retention_rows_purged_total",
			Help: "History and event rows deleted by the retention sweeper.",
		},
	)
)
