// package metrics exposes Prometheus counters and latency histograms for source lookups
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ntscat/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts lookups per source and outcome on its own registry.
type Recorder struct {
	registry *prometheus.Registry
	lookups  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRecorder creates a recorder with the lookup counter and duration histogram registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ntscat_source_lookups_total",
				Help: "Total source lookups by outcome",
			},
			[]string{"source", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ntscat_source_lookup_duration_seconds",
				Help:    "Source lookup latency, including pacing",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
	}
	r.registry.MustRegister(r.lookups, r.duration)
	return r
}

// ObserveLookup records one lookup.
func (r *Recorder) ObserveLookup(source, outcome string, elapsed time.Duration) {
	r.lookups.WithLabelValues(source, outcome).Inc()
	r.duration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// Handler serves the recorder's registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics and /healthz on addr until ctx is cancelled.
//
// The listener is bound before Serve returns so a bad address fails immediately.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *log.Logger) error {
	router := server.NewBasicRouter()
	if logger != nil {
		router.Use(server.Logging(logger))
	}
	router.Handle(http.MethodGet, "/metrics", r.Handler())
	router.Handler(server.Health{})

	bound, err := server.Start(ctx, addr, router, logger)
	if err != nil {
		return err
	}
	if logger != nil {
		logger.Info("metrics exposed", "url", fmt.Sprintf("http://%s/metrics", bound))
	}
	return nil
}
