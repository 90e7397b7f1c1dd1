package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/orderprofit/backend/internal/infrastructure/telemetry"
)

// Byte buckets. Responses reach into megabytes when a CSV export is
// returned inline.
var (
	requestSizeBuckets  = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000}
	responseSizeBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000, 5000000}
)

type httpMetrics struct {
	requests     *telemetry.Counter
	duration     *telemetry.Histogram
	requestSize  *telemetry.Histogram
	responseSize *telemetry.Histogram
	inFlight     metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	m := &httpMetrics{}
	var err error

	if m.requests, err = telemetry.NewCounter(meter,
		"http_server_request_total", "Total number of HTTP requests", "{request}"); err != nil {
		return nil, err
	}
	histograms := []struct {
		dst  **telemetry.Histogram
		opts telemetry.HistogramOpts
	}{
		{&m.duration, telemetry.HistogramOpts{
			Name: "http_server_request_duration_seconds", Description: "HTTP request latency in seconds",
			Unit: "s", Boundaries: telemetry.HTTPDurationBuckets,
		}},
		{&m.requestSize, telemetry.HistogramOpts{
			Name: "http_server_request_size_bytes", Description: "HTTP request body size in bytes",
			Unit: "By", Boundaries: requestSizeBuckets,
		}},
		{&m.responseSize, telemetry.HistogramOpts{
			Name: "http_server_response_size_bytes", Description: "HTTP response body size in bytes",
			Unit: "By", Boundaries: responseSizeBuckets,
		}},
	}
	for _, h := range histograms {
		if *h.dst, err = telemetry.NewHistogram(meter, h.opts); err != nil {
			return nil, err
		}
	}
	if m.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests currently being served"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// HTTPMetrics records request count, latency, body sizes and in-flight
// requests per matched route. It passes requests through untouched when mp
// is nil or disabled, or when the instruments cannot be created.
func HTTPMetrics(mp *telemetry.MeterProvider, log *zap.Logger) gin.HandlerFunc {
	if !mp.IsEnabled() {
		return passThrough
	}
	m, err := newHTTPMetrics(mp.Meter("http.server"))
	if err != nil {
		if log != nil {
			log.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		m.inFlight.Add(ctx, 1)
		c.Next()
		m.inFlight.Add(ctx, -1)

		status := c.Writer.Status()
		route := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(routePattern(c)),
		}
		m.requests.Inc(ctx, append(route,
			telemetry.AttrHTTPStatusCode.Int(status),
			attribute.String("status_class", StatusClass(status)),
		)...)
		m.duration.RecordDuration(ctx, time.Since(start), route...)
		if n := c.Request.ContentLength; n > 0 {
			m.requestSize.Record(ctx, float64(n), route...)
		}
		if n := c.Writer.Size(); n > 0 {
			m.responseSize.Record(ctx, float64(n), route...)
		}
	}
}

func passThrough(c *gin.Context) { c.Next() }

// routePattern returns the matched route, e.g. "/api/v1/fee-overrides/:source",
// so path parameters do not explode metric cardinality.
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

// StatusClass returns "2xx", "3xx", "4xx", "5xx" or "other".
func StatusClass(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "5xx"
	case status >= http.StatusBadRequest:
		return "4xx"
	case status >= http.StatusMultipleChoices:
		return "3xx"
	case status >= http.StatusOK:
		return "2xx"
	default:
		return "other"
	}
}
