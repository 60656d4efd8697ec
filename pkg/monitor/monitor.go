package monitor

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const relayNamespace = "relay"

var (
	// RelayRequestsTotal 中继 API 请求数，按路由模板和状态码区分
	RelayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: relayNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Relay API requests by route template and status code.",
		},
		[]string{"method", "route", "status"},
	)

	// RelayRequestDuration 中继 API 耗时。回执接口会阻塞到出块，所以桶覆盖到分钟级
	RelayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: relayNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Relay API latency by route template.",
			Buckets:   []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120},
		},
		[]string{"method", "route"},
	)

	initOnce sync.Once
)

// Init 注册中继 HTTP 指标和交易指标，可重复调用
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RelayRequestsTotal, RelayRequestDuration)
		InitTxMetrics()
	})
}

// PrometheusMiddleware 按路由模板记录请求，未匹配的路由 (404) 不记录，避免标签基数失控
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		RelayRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		RelayRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
