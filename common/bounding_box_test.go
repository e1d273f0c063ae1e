package common

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIoU_Correctness validates the IoU implementation against known test cases
func TestIoU_Correctness(t *testing.T) {
	tests := []struct {
		name     string
		b1       BoundingBox
		b2       BoundingBox
		expected float64
	}{
		{"Identical boxes", BoundingBox{0, 0, 100, 100}, BoundingBox{0, 0, 100, 100}, 1.0},
		{"No overlap", BoundingBox{0, 0, 100, 100}, BoundingBox{200, 200, 100, 100}, 0.0},
		{"Touching edges", BoundingBox{0, 0, 100, 100}, BoundingBox{100, 0, 100, 100}, 0.0},
		// intersection=2500, union=10000+10000-2500=17500
		{"Half overlap", BoundingBox{0, 0, 100, 100}, BoundingBox{50, 50, 100, 100}, 2500.0 / 17500.0},
		// intersection=100, union=19900
		{"Small overlap", BoundingBox{0, 0, 100, 100}, BoundingBox{90, 90, 100, 100}, 100.0 / 19900.0},
		{"One inside other", BoundingBox{0, 0, 100, 100}, BoundingBox{25, 25, 50, 50}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.b1.IoU(tt.b2), 1e-9)
			assert.InDelta(t, tt.b1.IoU(tt.b2), tt.b2.IoU(tt.b1), 1e-12, "IoU must be symmetric")
		})
	}
}

// TestIoU_vs_ImageRectangle compares the implementation against image.Rectangle.
func TestIoU_vs_ImageRectangle(t *testing.T) {
	testCases := []struct {
		name string
		b1   BoundingBox
		b2   BoundingBox
	}{
		{"No overlap", BoundingBox{0, 0, 100, 100}, BoundingBox{200, 200, 100, 100}},
		{"Partial overlap", BoundingBox{0, 0, 100, 100}, BoundingBox{50, 50, 100, 100}},
		{"Full overlap", BoundingBox{50, 50, 100, 100}, BoundingBox{50, 50, 100, 100}},
		{"Large boxes", BoundingBox{0, 0, 1920, 1080}, BoundingBox{960, 540, 960, 540}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, imageRectangleIoU(tc.b1.ToRect(), tc.b2.ToRect()), tc.b1.IoU(tc.b2), 1e-9)
		})
	}
}

func imageRectangleIoU(r1, r2 image.Rectangle) float64 {
	intersect := r1.Intersect(r2)
	if intersect.Empty() {
		return 0.0
	}
	intersectArea := intersect.Dx() * intersect.Dy()
	union := r1.Dx()*r1.Dy() + r2.Dx()*r2.Dy() - intersectArea
	return float64(intersectArea) / float64(union)
}

// TestIoU_DegenerateBoxes checks that boxes with non-positive dimensions never overlap.
func TestIoU_DegenerateBoxes(t *testing.T) {
	tests := []struct {
		name string
		b1   BoundingBox
		b2   BoundingBox
	}{
		{"Zero area box", BoundingBox{0, 0, 0, 0}, BoundingBox{0, 0, 100, 100}},
		{"Both zero area", BoundingBox{10, 10, 0, 0}, BoundingBox{10, 10, 0, 0}},
		{"Negative width", BoundingBox{50, 50, -40, 20}, BoundingBox{0, 0, 100, 100}},
		{"Negative both", BoundingBox{50, 50, -40, -40}, BoundingBox{10, 10, 40, 40}},
		{"Identical negative", BoundingBox{50, 50, -10, -10}, BoundingBox{50, 50, -10, -10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Zero(t, tt.b1.IoU(tt.b2))
			assert.Zero(t, tt.b2.IoU(tt.b1))
		})
	}
}

func TestBoundingBox_Clamp(t *testing.T) {
	b := BoundingBox{X: 400, Y: -3, Width: -12, Height: 30}
	c := b.Clamp()
	assert.Equal(t, BoundingBox{X: 400, Y: -3, Width: 0, Height: 30}, c)
	assert.True(t, c.Degenerate())
	assert.Equal(t, 0, c.Area())

	ok := BoundingBox{X: 1, Y: 2, Width: 3, Height: 4}
	assert.Equal(t, ok, ok.Clamp())
	assert.Equal(t, 12, ok.Area())
	assert.Equal(t, "(1, 2) 3x4", ok.String())
}
