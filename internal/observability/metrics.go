package observability

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration records request latency by method and route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wedding_sns_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// PostsCreated counts inserted posts, split into top-level and replies.
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wedding_sns_posts_created_total",
		Help: "Total number of posts created",
	}, []string{"kind"})

	// LikesToggled counts like inserts and deletes.
	LikesToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wedding_sns_likes_toggled_total",
		Help: "Total number of like toggles",
	}, []string{"action"})

	// RealtimeConnections is the gauge of open realtime websockets.
	RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wedding_sns_realtime_connections",
		Help: "Number of open realtime websocket connections",
	})

	// RealtimeEvents counts change events by table and type.
	RealtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wedding_sns_realtime_events_total",
		Help: "Total realtime change events published",
	}, []string{"table", "type"})

	// RealtimeDrops counts events dropped because a client buffer was full.
	RealtimeDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wedding_sns_realtime_drops_total",
		Help: "Total realtime events dropped due to backpressure",
	})

	// RedisErrors counts Redis errors by operation.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wedding_sns_redis_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})
)

func chiRoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
