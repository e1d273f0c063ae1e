// Package images - Image acquisition over OpenCV matrices.
package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/object-detector/inference"
	"github.com/nvr-ai/object-detector/models/postprocess"
	"github.com/nvr-ai/object-detector/util"
)

// Frame is a decoded BGR image held in an OpenCV matrix.
type Frame struct {
	mat gocv.Mat
}

// NewFrame wraps mat, taking ownership of it. An empty matrix is rejected and closed.
//
// Arguments:
//   - mat: The decoded image.
//
// Returns:
//   - *Frame: The frame.
//   - error: An error wrapping postprocess.ErrImageAcquisition if mat is empty.
func NewFrame(mat gocv.Mat) (*Frame, error) {
	if mat.Empty() {
		_ = mat.Close()
		return nil, errors.Wrap(postprocess.ErrImageAcquisition, "decoded image is empty")
	}
	return &Frame{mat: mat}, nil
}

// Mat returns the underlying matrix. It stays owned by the frame.
func (f *Frame) Mat() gocv.Mat {
	return f.mat
}

// Size returns the frame width and height in pixels.
func (f *Frame) Size() image.Point {
	return image.Point{X: f.mat.Cols(), Y: f.mat.Rows()}
}

// Image converts the frame to a Go image in RGB order.
func (f *Frame) Image() (image.Image, error) {
	img, err := f.mat.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert frame")
	}
	return img, nil
}

// Close releases the matrix.
func (f *Frame) Close() error {
	return f.mat.Close()
}

// Loader decodes images with OpenCV's codecs.
type Loader struct {
	// MaxBytes bounds the size of an encoded image file. Zero or less means
	// util.DefaultMaxImageBytes.
	MaxBytes int64
}

var _ inference.Loader = Loader{}

// Load reads the image file at path and decodes it in color.
func (l Loader) Load(path string) (inference.Frame, error) {
	file, err := util.ReadImageFile(path, l.MaxBytes)
	if err != nil {
		return nil, errors.Wrapf(postprocess.ErrImageAcquisition, "cannot read image: %v", err)
	}
	frame, err := l.Decode(file.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode image %s", file.Path)
	}
	return frame, nil
}

// Decode decodes an encoded image held in memory.
func (Loader) Decode(data []byte) (inference.Frame, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(postprocess.ErrImageAcquisition, "no image data")
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, errors.Wrapf(postprocess.ErrImageAcquisition, "failed to decode image: %v", err)
	}
	frame, err := NewFrame(mat)
	if err != nil {
		return nil, err
	}
	return frame, nil
}
