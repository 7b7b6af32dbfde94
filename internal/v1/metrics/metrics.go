package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the chat backend.
//
// Naming convention: namespace_subsystem_name
// - namespace: nultr (application-level grouping)
// - subsystem: websocket, room, http (feature-level grouping)
// - name: specific metric (connections_active, events_total, etc.)
//
// Metric Types:
// - Gauge: Current state (connections, registered sessions)
// - Counter: Cumulative events (messages persisted, events fanned out, errors)
// - Histogram: Latency distributions (frame processing time)

var (
	// ActiveConnections tracks the current number of live WebSocket sessions
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nultr",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of active WebSocket connections",
	})

	// RegisteredSessions tracks the current size of the session routing table
	RegisteredSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nultr",
		Subsystem: "room",
		Name:      "sessions_registered",
		Help:      "Current number of sessions registered for fan-out",
	})

	// WebsocketEvents tracks the total number of WebSocket events processed (CounterVec - cumulative)
	WebsocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nultr",
		Subsystem: "websocket",
		Name:      "events_total",
		Help:      "Total WebSocket events processed",
	}, []string{"event_type", "status"})

	// MessagesPersisted counts chat messages durably written before fan-out
	MessagesPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nultr",
		Subsystem: "room",
		Name:      "messages_persisted_total",
		Help:      "Total chat messages persisted",
	})

	// EventsFannedOut counts events enqueued into recipient inboxes
	EventsFannedOut = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nultr",
		Subsystem: "room",
		Name:      "events_fanned_out_total",
		Help:      "Total events enqueued into recipient session inboxes",
	}, []string{"event_type"})

	// FrameProcessingDuration tracks the time spent processing inbound frames (HistogramVec - latency distribution)
	FrameProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nultr",
		Subsystem: "websocket",
		Name:      "frame_processing_seconds",
		Help:      "Time spent processing inbound WebSocket frames",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"event_type"})

	// RateLimitRequests counts requests that passed the rate limiter
	RateLimitRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nultr",
		Subsystem: "http",
		Name:      "rate_limit_requests_total",
		Help:      "Total requests checked by the rate limiter",
	}, []string{"path"})

	// RateLimitExceeded counts requests rejected by the rate limiter
	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nultr",
		Subsystem: "http",
		Name:      "rate_limit_exceeded_total",
		Help:      "Total requests rejected by the rate limiter",
	}, []string{"path", "limit_type"})
)

func IncConnection() {
	ActiveConnections.Inc()
}

func DecConnection() {
	ActiveConnections.Dec()
}
