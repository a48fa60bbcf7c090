package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/orrery/orbitviz/internal/line"
	"github.com/orrery/orbitviz/internal/nbody"
	"github.com/orrery/orbitviz/internal/orbits"
)

// Collector records visualisation metrics. It implements orbits.Observer.
type Collector struct {
	registry *prometheus.Registry

	modeSwitches     *prometheus.CounterVec
	activeMode       *prometheus.GaugeVec
	frameDuration    *prometheus.HistogramVec
	liveLines        *prometheus.GaugeVec
	predictions      *prometheus.CounterVec // by result
	predictionTime   prometheus.Histogram
	predictionPoints prometheus.Gauge
	poolHits         prometheus.Counter
	poolMisses       prometheus.Counter
	poolCached       prometheus.Gauge

	lastPool line.PoolStats
}

// NewCollector creates the collectors and registers them on a private registry.
func NewCollector() *Collector {
	m := &Collector{
		registry: prometheus.NewRegistry(),
		modeSwitches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbitviz_mode_switches_total",
				Help: "Visualization mode transitions",
			},
			[]string{"mode"},
		),
		activeMode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orbitviz_active_mode",
				Help: "1 for the active visualization mode",
			},
			[]string{"mode"},
		),
		frameDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orbitviz_frame_update_seconds",
				Help:    "Time spent updating visualizations per frame",
				Buckets: prometheus.ExponentialBuckets(1e-5, 4, 8),
			},
			[]string{"mode"},
		),
		liveLines: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orbitviz_lines",
				Help: "Lines maintained by the active mode",
			},
			[]string{"mode"},
		),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbitviz_predictions_total",
				Help: "Trajectory predictions by result",
			},
			[]string{"result"}, // ok, truncated, empty, error
		),
		predictionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orbitviz_prediction_seconds",
			Help:    "Trajectory prediction wall time",
			Buckets: prometheus.ExponentialBuckets(1e-4, 4, 8),
		}),
		predictionPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orbitviz_prediction_points",
			Help: "Points in the last computed trajectory",
		}),
		poolHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbitviz_buffer_pool_hits_total",
			Help: "Buffer requests served from the pool",
		}),
		poolMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbitviz_buffer_pool_misses_total",
			Help: "Buffer requests that allocated",
		}),
		poolCached: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orbitviz_buffer_pool_cached",
			Help: "Buffers waiting in the pool",
		}),
	}

	m.registry.MustRegister(
		m.modeSwitches, m.activeMode, m.frameDuration, m.liveLines,
		m.predictions, m.predictionTime, m.predictionPoints,
		m.poolHits, m.poolMisses, m.poolCached,
	)
	return m
}

// Registry exposes the private registry, e.g. for tests.
func (m *Collector) Registry() *prometheus.Registry { return m.registry }

// SetMode records the starting mode without counting a switch.
func (m *Collector) SetMode(mode orbits.Mode) {
	for _, other := range []orbits.Mode{orbits.ModeKeplerian, orbits.ModeVerlet} {
		v := 0.0
		if other == mode {
			v = 1
		}
		m.activeMode.WithLabelValues(other.String()).Set(v)
	}
}

func (m *Collector) ModeChanged(mode orbits.Mode) {
	m.modeSwitches.WithLabelValues(mode.String()).Inc()
	m.SetMode(mode)
	// Lines of the mode left behind are gone.
	for _, other := range []orbits.Mode{orbits.ModeKeplerian, orbits.ModeVerlet} {
		if other != mode {
			m.liveLines.WithLabelValues(other.String()).Set(0)
		}
	}
}

func (m *Collector) FrameUpdated(mode orbits.Mode, lines int, elapsed time.Duration) {
	m.frameDuration.WithLabelValues(mode.String()).Observe(elapsed.Seconds())
	m.liveLines.WithLabelValues(mode.String()).Set(float64(lines))
}

func (m *Collector) PredictionComputed(points int, elapsed time.Duration, err error) {
	result := "ok"
	switch {
	case errors.Is(err, nbody.ErrNumericalInstability):
		result = "truncated"
	case err != nil:
		result = "error"
	case points < 2:
		result = "empty"
	}
	m.predictions.WithLabelValues(result).Inc()
	m.predictionTime.Observe(elapsed.Seconds())
	m.predictionPoints.Set(float64(points))
}

// PoolSampled converts the pool's cumulative counts into counter increments.
func (m *Collector) PoolSampled(s line.PoolStats) {
	if s.Hits >= m.lastPool.Hits {
		m.poolHits.Add(float64(s.Hits - m.lastPool.Hits))
	}
	if s.Misses >= m.lastPool.Misses {
		m.poolMisses.Add(float64(s.Misses - m.lastPool.Misses))
	}
	m.poolCached.Set(float64(s.Cached))
	m.lastPool = s
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Collector) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
