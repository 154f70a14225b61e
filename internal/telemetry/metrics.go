// Package telemetry exposes Prometheus metrics for the event bus and
// the HTTP surface.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roadsense/autobrake/internal/control"
	"github.com/roadsense/autobrake/internal/models"
)

var (
	eventsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autobrake_events_received_total",
			Help: "Total number of sensor events received, by type",
		},
		[]string{"type"},
	)

	brakeCommandsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autobrake_brake_commands_total",
			Help: "Total number of brake commands published",
		},
	)

	timeToCollisionSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "autobrake_time_to_collision_seconds",
			Help:    "Time to collision carried by published brake commands",
			Buckets: []float64{0.5, 1, 2, 3, 5, 10},
		},
	)

	currentSpeedMPS = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "autobrake_speed_mps",
			Help: "Last recorded vehicle speed in m/s",
		},
	)

	speedLimitMPS = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "autobrake_speed_limit_mps",
			Help: "Last known posted speed limit in m/s",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autobrake_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autobrake_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Attach subscribes metric updates to every channel of the dispatcher.
func Attach(d *control.Dispatcher, source control.SnapshotSource) {
	d.SubscribeSpeedUpdates(func(models.SpeedUpdate) {
		eventsReceivedTotal.WithLabelValues(models.EventSpeedUpdate).Inc()
		updateState(source)
	})
	d.SubscribeCarDetected(func(models.CarDetected) {
		eventsReceivedTotal.WithLabelValues(models.EventCarDetected).Inc()
	})
	d.SubscribeSpeedLimits(func(models.SpeedLimitDetected) {
		eventsReceivedTotal.WithLabelValues(models.EventSpeedLimit).Inc()
		updateState(source)
	})
	d.SubscribeBrakeCommands(func(cmd models.BrakeCommand) {
		brakeCommandsTotal.Inc()
		timeToCollisionSeconds.Observe(cmd.TimeToCollisionS)
	})
}

func updateState(source control.SnapshotSource) {
	snap := source.Snapshot()
	currentSpeedMPS.Set(snap.SpeedMPS)
	speedLimitMPS.Set(float64(snap.SpeedLimitMPS))
}

// Middleware records request counts and latencies per route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(ww.Status())).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
