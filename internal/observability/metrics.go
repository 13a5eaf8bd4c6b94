package observability

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dcmtojpeg/internal/logger"
)

// Metrics holds the Prometheus metrics of a conversion run
type Metrics struct {
	// File metrics
	FilesTotal         *prometheus.CounterVec
	ConversionDuration prometheus.Histogram
	ForcedDecodesTotal prometheus.Counter

	// Frame metrics
	RastersTotal        *prometheus.CounterVec
	NoUsableFramesTotal prometheus.Counter
	FilesInFlight       prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates the metrics on a private registry, so independent
// converters (and tests) never collide on registration.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		FilesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dcmtojpeg_files_total",
				Help: "Source files processed, by outcome",
			},
			[]string{"status"},
		),

		ConversionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dcmtojpeg_conversion_duration_seconds",
				Help:    "Per-file conversion time distribution",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),

		ForcedDecodesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dcmtojpeg_forced_decodes_total",
				Help: "Files that needed the forced (encapsulated) decode step",
			},
		),

		RastersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dcmtojpeg_rasters_total",
				Help: "Rasters produced, by channel mode",
			},
			[]string{"mode"},
		),

		NoUsableFramesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dcmtojpeg_files_without_usable_frames_total",
				Help: "Files whose every frame failed normalization",
			},
		),

		FilesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dcmtojpeg_files_in_flight",
				Help: "Files currently being converted",
			},
		),

		registry: reg,
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer binds addr and serves /metrics in the background. Bind errors
// are returned; errors after that are logged. The returned server's Addr is
// the bound address.
func (m *Metrics) StartServer(addr string, log logger.Logger) (*http.Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: ln.Addr().String(), Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", err, map[string]interface{}{"addr": srv.Addr})
		}
	}()
	return srv, nil
}
