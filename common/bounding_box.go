// Package common - Pixel-space geometry shared by the detection pipeline.
package common

import (
	"fmt"
	"image"
)

// BoundingBox is an integer pixel rectangle anchored at its top-left corner.
//
// Width and Height are not clamped: a box decoded near an image edge with a large
// relative size may carry a negative dimension. Such a box has no area and never
// overlaps anything.
type BoundingBox struct {
	X, Y          int
	Width, Height int
}

// String formats the bounding box for logging.
func (b BoundingBox) String() string {
	return fmt.Sprintf("(%d, %d) %dx%d", b.X, b.Y, b.Width, b.Height)
}

// Right returns the exclusive right edge of the box.
func (b BoundingBox) Right() int {
	return b.X + b.Width
}

// Bottom returns the exclusive bottom edge of the box.
func (b BoundingBox) Bottom() int {
	return b.Y + b.Height
}

// Degenerate reports whether the box has a non-positive width or height.
func (b BoundingBox) Degenerate() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Area returns the area of b in pixels. Degenerate boxes have zero area.
func (b BoundingBox) Area() int {
	if b.Degenerate() {
		return 0
	}
	return b.Width * b.Height
}

// Clamp returns a copy of b with negative dimensions floored at zero.
func (b BoundingBox) Clamp() BoundingBox {
	return BoundingBox{
		X:      b.X,
		Y:      b.Y,
		Width:  max(b.Width, 0),
		Height: max(b.Height, 0),
	}
}

// ToRect converts the bounding box to an image.Rectangle.
//
// The result is not canonicalized, so a degenerate box maps to an empty rectangle
// instead of being flipped into a valid one.
func (b BoundingBox) ToRect() image.Rectangle {
	return image.Rectangle{
		Min: image.Point{X: b.X, Y: b.Y},
		Max: image.Point{X: b.Right(), Y: b.Bottom()},
	}
}

// Intersection calculates the intersection area between two bounding boxes.
//
// Arguments:
//   - other: The other bounding box to calculate intersection with.
//
// Returns:
//   - The area of intersection in pixels, zero when the boxes do not overlap.
//
// @example
// box1 := BoundingBox{X: 0, Y: 0, Width: 100, Height: 100}
// box2 := BoundingBox{X: 50, Y: 50, Width: 100, Height: 100}
// area := box1.Intersection(box2) // Returns 2500 (50x50 overlap)
func (b BoundingBox) Intersection(other BoundingBox) int {
	ix1 := max(b.X, other.X)
	iy1 := max(b.Y, other.Y)
	ix2 := min(b.Right(), other.Right())
	iy2 := min(b.Bottom(), other.Bottom())

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0
	}
	return interW * interH
}

// Union calculates the union area between two bounding boxes.
//
// @example
// box1 := BoundingBox{X: 0, Y: 0, Width: 100, Height: 100}
// box2 := BoundingBox{X: 50, Y: 50, Width: 100, Height: 100}
// area := box1.Union(box2) // Returns 17500
func (b BoundingBox) Union(other BoundingBox) int {
	return b.Area() + other.Area() - b.Intersection(other)
}

// IoU calculates the Intersection over Union between two bounding boxes.
//
// The ratio is computed in float64 so that comparisons against a float32 threshold
// behave like the widened comparison OpenCV's NMSBoxes performs.
//
// Arguments:
//   - other: The other bounding box to calculate IoU with.
//
// Returns:
//   - The IoU value between 0 and 1. Zero when either box is degenerate or the
//     boxes do not overlap.
//
// @example
// box1 := BoundingBox{X: 0, Y: 0, Width: 100, Height: 100}
// box2 := BoundingBox{X: 50, Y: 50, Width: 100, Height: 100}
// iou := box1.IoU(box2) // Returns ~0.143 (2500/17500)
func (b BoundingBox) IoU(other BoundingBox) float64 {
	inter := b.Intersection(other)
	if inter == 0 {
		return 0
	}
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
