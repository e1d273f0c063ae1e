// Package inference - Inference engine interfaces shared by the detector and its backends.
package inference

import (
	"context"
	"image"

	"gorgonia.org/tensor"
)

// Frame is a decoded image owned by the caller until Close.
type Frame interface {
	// Size returns the width (X) and height (Y) of the image in pixels.
	Size() image.Point
	// Close releases the native resources held by the frame.
	Close() error
}

// Loader acquires frames from files and encoded bytes.
type Loader interface {
	// Load reads and decodes the image at path.
	Load(path string) (Frame, error)
	// Decode decodes an in-memory encoded image.
	Decode(data []byte) (Frame, error)
}

// Engine runs a detection network over a frame and returns its raw output tensors.
//
// Each tensor is a float32 matrix of shape (rows, 5+C) whose rows are
// [cx, cy, w, h, objectness, score_0 ... score_{C-1}] in normalized coordinates.
// An Engine is not safe for concurrent use.
type Engine interface {
	Infer(ctx context.Context, frame Frame) ([]tensor.Tensor, error)
	Close() error
}
