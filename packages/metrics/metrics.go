package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "droneanalytics"

var (
	// Строки загрузки
	RowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parsing",
			Name:      "rows_total",
			Help:      "Rows processed by the record pipeline",
		},
		[]string{"outcome"},
	)

	// Поиск региона по точке
	RegionLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "regions",
			Name:      "lookups_total",
			Help:      "Region lookups by outcome",
		},
		[]string{"outcome"},
	)

	ReportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "report_duration_seconds",
			Help:      "Statistics report build time",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)

	UploadBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "batch_records",
			Help:      "Records inserted per upload",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
		},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

const (
	OutcomeParsed  = "parsed"
	OutcomeSkipped = "skipped"

	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeCache = "cache"
	OutcomeError = "error"
)

// ObserveRequest учитывает один HTTP запрос
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
