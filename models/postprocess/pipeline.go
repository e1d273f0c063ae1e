package postprocess

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// DegeneratePolicy selects how boxes with negative decoded dimensions are emitted.
type DegeneratePolicy string

const (
	// DegeneratePassthrough emits negative widths and heights unchanged.
	DegeneratePassthrough DegeneratePolicy = "passthrough"
	// DegenerateClamp floors negative widths and heights at zero.
	DegenerateClamp DegeneratePolicy = "clamp"
)

// Config holds the per-run parameters of the pipeline.
type Config struct {
	// ConfidenceThreshold is the strict lower bound on candidate confidence. It is
	// also the score floor used inside suppression.
	ConfidenceThreshold float32
	// NMSThreshold is the IoU above which same-class boxes are suppressed.
	NMSThreshold float32
	// DegenerateBoxes selects the handling of negative box dimensions.
	DegenerateBoxes DegeneratePolicy
}

// Validate checks that the configuration can drive a pipeline run.
func (c Config) Validate() error {
	if math32.IsNaN(c.ConfidenceThreshold) || c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.Wrapf(ErrConfiguration, "confidence threshold %v outside [0, 1]", c.ConfidenceThreshold)
	}
	if math32.IsNaN(c.NMSThreshold) || c.NMSThreshold <= 0 || c.NMSThreshold > 1 {
		return errors.Wrapf(ErrConfiguration, "nms threshold %v outside (0, 1]", c.NMSThreshold)
	}
	switch c.DegenerateBoxes {
	case DegeneratePassthrough, DegenerateClamp:
	default:
		return errors.Wrapf(ErrConfiguration, "unknown degenerate box policy %q", c.DegenerateBoxes)
	}
	return nil
}

// Report is the outcome of one pipeline run.
type Report struct {
	// Candidates is the number of decoded rows.
	Candidates int
	// Confident is the number of candidates above the confidence threshold.
	Confident int
	// Classes is the number of non-empty class buckets before suppression.
	Classes int
	// Detections are the final, ordered detections.
	Detections []Detection
}

// String summarizes the report for logging.
func (r *Report) String() string {
	return fmt.Sprintf("candidates=%d confident=%d classes=%d detections=%d",
		r.Candidates, r.Confident, r.Classes, len(r.Detections))
}

// Pipeline chains decoding, filtering, grouping, suppression and serialization.
// A Pipeline holds no per-image state and may be reused for any number of images.
type Pipeline struct {
	config  Config
	nms     NMSConfig
	classes ClassLookup
}

// NewPipeline creates a pipeline for a validated configuration.
//
// Arguments:
//   - config: The pipeline configuration.
//   - classes: The class name table used to resolve detections.
//
// Returns:
//   - *Pipeline: The pipeline.
//   - error: An error wrapping ErrConfiguration if the configuration is invalid.
func NewPipeline(config Config, classes ClassLookup) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if classes == nil {
		return nil, errors.Wrap(ErrConfiguration, "class table is required")
	}

	return &Pipeline{
		config: config,
		nms: NMSConfig{
			IoUThreshold:   config.NMSThreshold,
			ScoreThreshold: config.ConfidenceThreshold,
		},
		classes: classes,
	}, nil
}

// Process runs the full pipeline over the raw output tensors of one image.
//
// Arguments:
//   - tensors: The raw output tensors returned by the inference engine.
//   - frame: The original image size, width in X and height in Y.
//
// Returns:
//   - *Report: Stage counts and the final detections.
//   - error: ErrMalformedTensor or ErrClassIndex on contract violations.
func (p *Pipeline) Process(tensors []tensor.Tensor, frame image.Point) (*Report, error) {
	candidates, err := Decode(tensors, frame)
	if err != nil {
		return nil, err
	}

	if p.config.DegenerateBoxes == DegenerateClamp {
		for i := range candidates {
			candidates[i].Box = candidates[i].Box.Clamp()
		}
	}

	confident := Filter(candidates, p.config.ConfidenceThreshold)
	buckets := Group(confident)
	kept := Suppress(buckets, &p.nms)

	detections, err := Serialize(kept, p.classes)
	if err != nil {
		return nil, err
	}

	return &Report{
		Candidates: len(candidates),
		Confident:  len(confident),
		Classes:    len(buckets),
		Detections: detections,
	}, nil
}
