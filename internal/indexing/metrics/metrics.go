package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal tracks completed polling cycles.
	CyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexer_cycles_total",
			Help: "Total number of completed polling cycles",
		},
	)

	// FetchFailuresTotal tracks aborted cycles due to feed failures.
	FetchFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexer_fetch_failures_total",
			Help: "Total number of event feed fetch failures",
		},
	)

	// EventsTotal tracks dispatched events per event type and outcome.
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_events_total",
			Help: "Total number of processed events",
		},
		[]string{"event_type", "outcome"},
	)

	// PendingStashSize tracks events waiting for their project.
	PendingStashSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "indexer_pending_stash_size",
			Help: "Number of events stashed in the pending-dependency cache",
		},
	)

	// WatermarkTimestamp exposes the per-event-type watermark as a unix
	// timestamp so dashboards can chart indexing lag.
	WatermarkTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "indexer_watermark_timestamp_seconds",
			Help: "Watermark position per event type as a unix timestamp",
		},
		[]string{"event_type"},
	)
)
