package viewers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsPrefix = "feedstats_viewers_"

// Metrics holds the Prometheus collectors of the poller and the HTTP server.
// A nil *Metrics records nothing.
type Metrics struct {
	concurrentViewers *prometheus.GaugeVec
	samplesTotal      *prometheus.CounterVec
	fetchErrorsTotal  *prometheus.CounterVec
	fetchDuration     *prometheus.HistogramVec
	httpRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		concurrentViewers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricsPrefix + "concurrent",
				Help: "Latest concurrent viewer count per series",
			},
			[]string{"series"},
		),
		samplesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricsPrefix + "samples_total",
				Help: "Samples appended to history per series",
			},
			[]string{"series"},
		),
		fetchErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricsPrefix + "fetch_errors_total",
				Help: "Failed viewer fetches per series and reason",
			},
			[]string{"series", "reason"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricsPrefix + "fetch_duration_seconds",
				Help:    "Viewer fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"series"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricsPrefix + "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
	}
	reg.MustRegister(
		m.concurrentViewers,
		m.samplesTotal,
		m.fetchErrorsTotal,
		m.fetchDuration,
		m.httpRequestsTotal,
	)
	return m
}

func (m *Metrics) recordSample(series string, count int, took time.Duration) {
	if m == nil {
		return
	}
	m.concurrentViewers.WithLabelValues(series).Set(float64(count))
	m.samplesTotal.WithLabelValues(series).Inc()
	m.fetchDuration.WithLabelValues(series).Observe(took.Seconds())
}

func (m *Metrics) recordFetchError(series string, err error, took time.Duration) {
	if m == nil {
		return
	}
	m.fetchErrorsTotal.WithLabelValues(series, errorReason(err)).Inc()
	m.fetchDuration.WithLabelValues(series).Observe(took.Seconds())
}

// middleware counts HTTP requests by route.
func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if m == nil {
			return
		}
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
