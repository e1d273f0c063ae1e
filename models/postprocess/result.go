// Package postprocess - Turns raw detector output tensors into ordered detections.
package postprocess

import "github.com/nvr-ai/object-detector/common"

// Candidate is a single decoded output row before filtering and suppression.
type Candidate struct {
	// Normalized [0,1] geometry as produced by the network.
	CenterX, CenterY, Width, Height float32
	// The arg-max class index over the row's score columns.
	ClassID int
	// The score at ClassID.
	Confidence float32
	// The box in original image pixels.
	Box common.BoundingBox
	// Position of the row across all decoded tensors. Used as the stable tie-break.
	Index int
}

// Bucket holds the candidates of one class in decode order.
type Bucket struct {
	ClassID    int
	Candidates []Candidate
}

// Detection is a finalized, named detection in original image pixels.
type Detection struct {
	ClassID    int
	ClassName  string
	Confidence float32
	Box        common.BoundingBox
}
