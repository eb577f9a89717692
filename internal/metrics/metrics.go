// Package metrics exposes Prometheus instrumentation for the pipeline.
// No example in this codebase's lineage wires prometheus/client_golang
// directly, so this follows the library's own NewXVec/MustRegister
// idiom (github.com/prometheus/client_golang/prometheus).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry groups every metric the pipeline publishes. A zero value is
// not usable; construct with NewRegistry.
type Registry struct {
	CaptureFPS       prometheus.Gauge
	CaptureDropped   prometheus.Counter
	RecorderDropped  prometheus.Counter
	RecorderWritten  prometheus.Counter
	GateCount        prometheus.Counter
	DetectionLatency prometheus.Histogram
	PackagingTier    prometheus.Gauge
}

// NewRegistry builds and registers every metric against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	m := &Registry{
		CaptureFPS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vision_pipeline",
			Subsystem: "capture",
			Name:      "fps",
			Help:      "Rolling measured capture frame rate.",
		}),
		CaptureDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vision_pipeline",
			Subsystem: "capture",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped by the capture worker on transient read failure.",
		}),
		RecorderDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vision_pipeline",
			Subsystem: "recorder",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped from the bounded recorder sink due to overflow.",
		}),
		RecorderWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vision_pipeline",
			Subsystem: "recorder",
			Name:      "frames_written_total",
			Help:      "Frames successfully written to the active video encoder.",
		}),
		GateCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vision_pipeline",
			Subsystem: "gate",
			Name:      "crossings_total",
			Help:      "Total de-duplicated part crossings counted at the gate line.",
		}),
		DetectionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vision_pipeline",
			Subsystem: "detect",
			Name:      "stage_latency_seconds",
			Help:      "Wall-clock time spent in one detection engine Process call.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		PackagingTier: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vision_pipeline",
			Subsystem: "packaging",
			Name:      "tier",
			Help:      "Current actuator speed tier, 0=Full .. 4=Stop.",
		}),
	}

	reg.MustRegister(
		m.CaptureFPS, m.CaptureDropped, m.RecorderDropped, m.RecorderWritten,
		m.GateCount, m.DetectionLatency, m.PackagingTier,
	)
	return m
}
