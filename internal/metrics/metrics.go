// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskflow_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Realtime hub
	HubBoards = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskflow_hub_boards",
			Help: "Boards with at least one subscriber",
		},
	)

	HubSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskflow_hub_subscribers",
			Help: "Listeners currently subscribed across all boards",
		},
	)

	EventsBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskflow_events_broadcast_total",
			Help: "Realtime events broadcast, by event type",
		},
		[]string{"type"},
	)

	ListenerFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskflow_listener_failures_total",
			Help: "Listener invocations that panicked during broadcast",
		},
	)

	RelayMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskflow_relay_messages_total",
			Help: "Messages through the redis relay, by direction",
		},
		[]string{"direction"},
	)

	// Streams
	StreamConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "taskflow_stream_connections",
			Help: "Open streaming connections, by transport",
		},
		[]string{"transport"},
	)

	StreamRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskflow_stream_rejected_total",
			Help: "Streaming connections refused or dropped, by reason",
		},
		[]string{"reason"},
	)

	// Activity
	ActivityFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskflow_activity_failures_total",
			Help: "Activity entries that could not be queued or written, by stage",
		},
		[]string{"stage"},
	)

	// Cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskflow_board_cache_hits_total",
			Help: "Board detail cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskflow_board_cache_misses_total",
			Help: "Board detail cache misses",
		},
	)
)

// Middleware records request duration by matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
