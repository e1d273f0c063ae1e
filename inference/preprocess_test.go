package inference

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareInput_PlanarRGB(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{G: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})
	img.Set(1, 1, color.RGBA{R: 51, G: 102, B: 204, A: 255})

	dst := make([]float32, 12)
	require.NoError(t, PrepareInput(img, image.Pt(2, 2), dst))

	assert.Equal(t, []float32{1, 0, 0, 0.2}, dst[0:4])
	assert.Equal(t, []float32{0, 1, 0, 0.4}, dst[4:8])
	assert.Equal(t, []float32{0, 0, 1, 0.8}, dst[8:12])
}

func TestPrepareInput_Resizes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	size := image.Pt(16, 16)
	dst := make([]float32, 3*16*16)
	require.NoError(t, PrepareInput(img, size, dst))

	for i, v := range dst {
		require.InDelta(t, 1.0, v, 0.01, "value %d", i)
	}
}

func TestPrepareInput_ShortBuffer(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	err := PrepareInput(img, image.Pt(4, 4), make([]float32, 10))
	assert.Error(t, err)
}
