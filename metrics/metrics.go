// Package metrics - Prometheus instrumentation for the detection driver.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage names used as the "stage" label of StageDuration.
const (
	StageAcquire = "acquire"
	StageInfer   = "infer"
	StagePost    = "postprocess"
	StageWrite   = "write"
)

// Metrics holds the detector collectors on a private registry.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ImagesProcessed prometheus.Counter
	ImagesFailed    *prometheus.CounterVec
	Candidates      prometheus.Counter
	Confident       prometheus.Counter
	Detections      *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
}

// New registers the detector collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ImagesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "object_detector_images_processed_total",
			Help: "Total number of images run through the detection pipeline",
		}),
		ImagesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "object_detector_images_failed_total",
			Help: "Total number of images that could not be processed, by reason",
		}, []string{"reason"}),
		Candidates: factory.NewCounter(prometheus.CounterOpts{
			Name: "object_detector_candidates_total",
			Help: "Total number of candidate rows decoded from network output",
		}),
		Confident: factory.NewCounter(prometheus.CounterOpts{
			Name: "object_detector_confident_candidates_total",
			Help: "Total number of candidates above the confidence threshold",
		}),
		Detections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "object_detector_detections_total",
			Help: "Total number of detections emitted, by class",
		}, []string{"class"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "object_detector_stage_duration_seconds",
			Help:    "Per-image duration of each detection stage in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"stage"}),
	}
}

// ObserveStage records the duration of one stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordImage records a successfully processed image.
func (m *Metrics) RecordImage(candidates, confident int, classes []string) {
	if m == nil {
		return
	}
	m.ImagesProcessed.Inc()
	m.Candidates.Add(float64(candidates))
	m.Confident.Add(float64(confident))
	for _, class := range classes {
		m.Detections.WithLabelValues(class).Inc()
	}
}

// RecordFailure records an image that could not be processed.
func (m *Metrics) RecordFailure(reason string) {
	if m == nil {
		return
	}
	m.ImagesFailed.WithLabelValues(reason).Inc()
}

// WriteTextfile writes the current values in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}
