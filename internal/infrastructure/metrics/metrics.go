package metrics

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cone-steer/internal/domain/entity"
	"cone-steer/internal/domain/port"
)

// Metrics counters and gauges of the steering service.
type Metrics struct {
	FramesProcessed    atomic.Uint64
	FramesSkipped      atomic.Uint64
	BlueCandidates     atomic.Uint64
	YellowCandidates   atomic.Uint64
	DegenerateContours atomic.Uint64
	YawApplied         atomic.Uint64
	YawIgnored         atomic.Uint64
	ReferenceSamples   atomic.Uint64
	Datagrams          atomic.Uint64
	DatagramBytes      atomic.Uint64
	MalformedDatagrams atomic.Uint64

	// float64 bits
	steering atomic.Uint64
	yawRate  atomic.Uint64
	accuracy atomic.Uint64

	processing prometheus.Histogram
	registry   *prometheus.Registry
}

// New creates the metrics and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		processing: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "conesteer_frame_processing_seconds",
			Help:    "Time from frame copy to emitted command",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	counter := func(name, help string, v *atomic.Uint64, labels prometheus.Labels) {
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: name, Help: help, ConstLabels: labels},
			func() float64 { return float64(v.Load()) },
		))
	}
	gauge := func(name, help string, bits *atomic.Uint64) {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: name, Help: help},
			func() float64 { return math.Float64frombits(bits.Load()) },
		))
	}

	counter("conesteer_frames_processed_total", "Frames that produced a steering command", &m.FramesProcessed, nil)
	counter("conesteer_frames_skipped_total", "Frames dropped because processing failed", &m.FramesSkipped, nil)
	counter("conesteer_candidates_total", "Cone candidates found per color", &m.BlueCandidates, prometheus.Labels{"color": "blue"})
	counter("conesteer_candidates_total", "Cone candidates found per color", &m.YellowCandidates, prometheus.Labels{"color": "yellow"})
	counter("conesteer_degenerate_contours_total", "Contours dropped for zero area", &m.DegenerateContours, nil)
	counter("conesteer_yaw_samples_total", "Angular velocity readings by outcome", &m.YawApplied, prometheus.Labels{"outcome": "applied"})
	counter("conesteer_yaw_samples_total", "Angular velocity readings by outcome", &m.YawIgnored, prometheus.Labels{"outcome": "ignored"})
	counter("conesteer_reference_samples_total", "Ground steering requests received", &m.ReferenceSamples, nil)
	counter("conesteer_datagrams_total", "OD4 datagrams received", &m.Datagrams, nil)
	counter("conesteer_datagram_bytes_total", "OD4 bytes received", &m.DatagramBytes, nil)
	counter("conesteer_datagrams_malformed_total", "OD4 datagrams that failed to decode", &m.MalformedDatagrams, nil)

	gauge("conesteer_steering", "Last emitted steering command", &m.steering)
	gauge("conesteer_yaw_rate", "Last applied angular velocity around z", &m.yawRate)
	gauge("conesteer_accuracy_percent", "Share of commands within tolerance of the reference", &m.accuracy)

	m.registry.MustRegister(m.processing)
}

func (m *Metrics) FrameProcessed(elapsed time.Duration, result entity.SteeringResult) {
	m.FramesProcessed.Add(1)
	m.steering.Store(math.Float64bits(result.Steering))
	m.processing.Observe(elapsed.Seconds())
}

func (m *Metrics) FrameSkipped() {
	m.FramesSkipped.Add(1)
}

func (m *Metrics) CandidatesFound(color entity.ColorTag, n int) {
	switch color {
	case entity.ColorBlue:
		m.BlueCandidates.Add(uint64(n))
	case entity.ColorYellow:
		m.YellowCandidates.Add(uint64(n))
	}
}

func (m *Metrics) DegenerateDropped(n int) {
	m.DegenerateContours.Add(uint64(n))
}

func (m *Metrics) YawSample(applied bool, z float64) {
	if !applied {
		m.YawIgnored.Add(1)
		return
	}
	m.YawApplied.Add(1)
	m.yawRate.Store(math.Float64bits(z))
}

func (m *Metrics) ReferenceSample(float64) {
	m.ReferenceSamples.Add(1)
}

func (m *Metrics) Accuracy(percent float64) {
	m.accuracy.Store(math.Float64bits(percent))
}

// DatagramReceived counts inbound OD4 traffic.
func (m *Metrics) DatagramReceived(bytes int) {
	m.Datagrams.Add(1)
	m.DatagramBytes.Add(uint64(bytes))
}

// DatagramMalformed counts datagrams that could not be decoded.
func (m *Metrics) DatagramMalformed() {
	m.MalformedDatagrams.Add(1)
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

var _ port.PipelineMetrics = (*Metrics)(nil)
