package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wigglelens_renders_total",
		Help: "Total number of renders, by outcome",
	}, []string{"outcome"})

	RenderStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wigglelens_render_stage_duration_seconds",
		Help:    "Duration of each render pipeline stage",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	FramesComposedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wigglelens_frames_composed_total",
		Help: "Total number of frames handed to the video encoder",
	})

	ValidationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wigglelens_validation_failures_total",
		Help: "Rejected render requests, by error code",
	}, []string{"code"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wigglelens_active_workers",
		Help: "Number of renders currently in progress",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wigglelens_retry_total",
		Help: "Total number of render job retries",
	}, []string{"attempt"})
)
