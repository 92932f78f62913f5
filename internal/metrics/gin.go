package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "接口耗时（秒），按路由分组与状态码区分。",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"surface", "route", "code"},
	)

	httpInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "正在处理的请求数。",
		},
		[]string{"surface"},
	)
)

// Surface 把路由归入 auth / resumes / ai / templates / ws / other，用作低基数标签。
func Surface(route string) string {
	rest, ok := strings.CutPrefix(route, "/api/")
	if !ok {
		return "other"
	}
	head, _, _ := strings.Cut(rest, "/")
	switch head {
	case "auth", "resumes", "ai", "templates", "ws":
		return head
	default:
		return "other"
	}
}

// GinMiddleware 统计 /api 下的请求；/health 与 /metrics 不计入。
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if route == "/health" || route == "/metrics" {
			c.Next()
			return
		}

		surface := Surface(route)
		inFlight := httpInFlight.WithLabelValues(surface)
		inFlight.Inc()
		start := time.Now()

		c.Next()

		inFlight.Dec()
		httpDuration.WithLabelValues(surface, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
