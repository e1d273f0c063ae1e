package inference

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nvr-ai/object-detector/models/postprocess"
)

func TestConfig_Validate(t *testing.T) {
	darknet := DefaultConfig()
	darknet.Config = "yolov3.cfg"
	darknet.Weights = "yolov3.weights"

	onnx := DefaultConfig()
	onnx.Backend = EngineONNX
	onnx.Weights = "yolov3.onnx"
	onnx.ONNX.OutputShape = []int64{10647, 85}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		base    Config
		wantErr bool
	}{
		{"darknet", func(*Config) {}, darknet, false},
		{"onnx", func(*Config) {}, onnx, false},
		{"unknown backend", func(c *Config) { c.Backend = "tflite" }, darknet, true},
		{"missing weights", func(c *Config) { c.Weights = "" }, darknet, true},
		{"darknet without cfg", func(c *Config) { c.Config = "" }, darknet, true},
		{"onnx without cfg", func(c *Config) { c.Config = "" }, onnx, false},
		{"zero input", func(c *Config) { c.InputShape = image.Point{} }, darknet, true},
		{"onnx missing outputs", func(c *Config) { c.ONNX.OutputNames = nil }, onnx, true},
		{"onnx narrow output", func(c *Config) { c.ONNX.OutputShape = []int64{100, 5} }, onnx, true},
		{"onnx single batch output", func(c *Config) { c.ONNX.OutputShape = []int64{1, 100, 85} }, onnx, false},
		{"onnx batched output", func(c *Config) { c.ONNX.OutputShape = []int64{2, 100, 85} }, onnx, true},
		{"onnx vector output", func(c *Config) { c.ONNX.OutputShape = []int64{85} }, onnx, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.base
			c.ONNX.OutputNames = append([]string(nil), tt.base.ONNX.OutputNames...)
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, postprocess.ErrConfiguration), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseEngineType(t *testing.T) {
	backend, err := ParseEngineType("onnx")
	assert.NoError(t, err)
	assert.Equal(t, EngineONNX, backend)

	_, err = ParseEngineType("openvino")
	assert.True(t, errors.Is(err, postprocess.ErrConfiguration))
}
