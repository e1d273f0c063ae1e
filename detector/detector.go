// Package detector - Drives images through inference and post-processing.
package detector

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nvr-ai/object-detector/inference"
	"github.com/nvr-ai/object-detector/metrics"
	"github.com/nvr-ai/object-detector/models/postprocess"
	"github.com/nvr-ai/object-detector/util"
)

// Options tune a Detector.
type Options struct {
	// MaxImageBytes bounds an encoded image read from a stream.
	MaxImageBytes int64
	// Metrics receives per-image counters. Nil disables metrics.
	Metrics *metrics.Metrics
}

// Detector turns images into detections. It owns its engine and is not safe for
// concurrent use.
type Detector struct {
	engine   inference.Engine
	loader   inference.Loader
	pipeline *postprocess.Pipeline
	metrics  *metrics.Metrics
	maxBytes int64
}

// New creates a detector over a loaded engine.
//
// Arguments:
//   - engine: The inference engine. Closed by Detector.Close.
//   - loader: Decodes images into frames the engine accepts.
//   - pipeline: The post-processing pipeline.
//   - opts: Optional settings.
//
// Returns:
//   - *Detector: The detector.
//   - error: An error wrapping postprocess.ErrConfiguration if a collaborator is missing.
func New(engine inference.Engine, loader inference.Loader, pipeline *postprocess.Pipeline, opts Options) (*Detector, error) {
	if engine == nil || loader == nil || pipeline == nil {
		return nil, errors.Wrap(postprocess.ErrConfiguration, "engine, loader and pipeline are required")
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = util.DefaultMaxImageBytes
	}
	return &Detector{
		engine:   engine,
		loader:   loader,
		pipeline: pipeline,
		metrics:  opts.Metrics,
		maxBytes: opts.MaxImageBytes,
	}, nil
}

// DetectFile loads the image at path and detects objects in it.
func (d *Detector) DetectFile(ctx context.Context, path string) ([]postprocess.Detection, error) {
	logger := log.With().Str("image_id", uuid.New().String()).Str("source", path).Logger()

	start := time.Now()
	frame, err := d.loader.Load(path)
	if err != nil {
		return nil, asAcquisition(err)
	}
	defer frame.Close()
	d.metrics.ObserveStage(metrics.StageAcquire, time.Since(start))

	return d.detect(ctx, frame, logger)
}

// DetectBytes decodes an encoded image and detects objects in it.
func (d *Detector) DetectBytes(ctx context.Context, data []byte) ([]postprocess.Detection, error) {
	logger := log.With().Str("image_id", uuid.New().String()).Str("source", "stdin").Logger()

	start := time.Now()
	frame, err := d.loader.Decode(data)
	if err != nil {
		return nil, asAcquisition(err)
	}
	defer frame.Close()
	d.metrics.ObserveStage(metrics.StageAcquire, time.Since(start))

	return d.detect(ctx, frame, logger)
}

// DetectReader reads one encoded image from r until EOF and detects objects in it.
func (d *Detector) DetectReader(ctx context.Context, r io.Reader) ([]postprocess.Detection, error) {
	data, err := util.ReadAllLimited(r, d.maxBytes)
	if err != nil {
		return nil, asAcquisition(err)
	}
	return d.DetectBytes(ctx, data)
}

func (d *Detector) detect(ctx context.Context, frame inference.Frame, logger zerolog.Logger) ([]postprocess.Detection, error) {
	start := time.Now()
	tensors, err := d.engine.Infer(ctx, frame)
	if err != nil {
		return nil, errors.Wrap(err, "inference failed")
	}
	inferred := time.Since(start)
	d.metrics.ObserveStage(metrics.StageInfer, inferred)

	start = time.Now()
	report, err := d.pipeline.Process(tensors, frame.Size())
	if err != nil {
		return nil, err
	}
	processed := time.Since(start)
	d.metrics.ObserveStage(metrics.StagePost, processed)

	classes := make([]string, 0, len(report.Detections))
	for _, det := range report.Detections {
		classes = append(classes, det.ClassName)
	}
	d.metrics.RecordImage(report.Candidates, report.Confident, classes)

	logger.Debug().
		Stringer("size", frame.Size()).
		Int("candidates", report.Candidates).
		Int("confident", report.Confident).
		Int("classes", report.Classes).
		Int("detections", len(report.Detections)).
		Dur("infer", inferred).
		Dur("postprocess", processed).
		Msg("image processed")

	return report.Detections, nil
}

// write emits one JSON array for an image.
func (d *Detector) write(out io.Writer, detections []postprocess.Detection) error {
	start := time.Now()
	if err := postprocess.WriteJSON(out, detections); err != nil {
		return err
	}
	d.metrics.ObserveStage(metrics.StageWrite, time.Since(start))
	return nil
}

// Close releases the engine.
func (d *Detector) Close() error {
	return d.engine.Close()
}

// asAcquisition classifies any image loading failure as an acquisition error.
func asAcquisition(err error) error {
	if errors.Is(err, postprocess.ErrImageAcquisition) {
		return err
	}
	return errors.Wrap(postprocess.ErrImageAcquisition, err.Error())
}
