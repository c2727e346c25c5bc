package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latency of HTTP requests by route and method",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"method", "route", "status"})

	ListingsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "listings_created_total",
		Help: "Listings created since process start",
	})

	ListingsExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "listings_expired_total",
		Help: "Listings flipped to expired by the sweep",
	})
)

func Init() {
	prometheus.MustRegister(RequestDuration, RequestsTotal, ListingsCreated, ListingsExpired)
}

// Middleware records per-request counters and latencies keyed by the route
// template, not the raw path, to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler exposes the Prometheus scrape endpoint as a gin handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
