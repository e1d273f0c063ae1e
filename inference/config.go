package inference

import (
	"image"

	"github.com/pkg/errors"

	"github.com/nvr-ai/object-detector/models/postprocess"
)

// Config describes the network an Engine loads and how frames are fed to it.
type Config struct {
	// Backend selects the engine implementation.
	Backend EngineType `json:"backend" yaml:"backend" mapstructure:"backend"`
	// Config is the darknet network description (.cfg). Unused by the ONNX backend.
	Config string `json:"config" yaml:"config" mapstructure:"config"`
	// Weights is the darknet weights file, or the .onnx model for the ONNX backend.
	Weights string `json:"weights" yaml:"weights" mapstructure:"weights"`
	// InputShape is the network input size (width, height).
	InputShape image.Point `json:"input_shape" yaml:"input_shape" mapstructure:"input_shape"`
	// ONNX holds the settings specific to the ONNX backend.
	ONNX ONNXConfig `json:"onnx" yaml:"onnx" mapstructure:"onnx"`
}

// ONNXConfig describes the tensors of an exported detection model.
type ONNXConfig struct {
	// InputName is the name of the (1, 3, H, W) image input.
	InputName string `json:"input_name" yaml:"input_name" mapstructure:"input_name"`
	// OutputNames lists the detection outputs, each of shape OutputShape.
	OutputNames []string `json:"output_names" yaml:"output_names" mapstructure:"output_names"`
	// OutputShape is the (rows, 5+C) or (1, rows, 5+C) shape of every output.
	OutputShape []int64 `json:"output_shape" yaml:"output_shape" mapstructure:"output_shape"`
	// LibraryPath overrides the platform default onnxruntime shared library.
	LibraryPath string `json:"library_path" yaml:"library_path" mapstructure:"library_path"`
	// ExecutionProvider selects cpu, cuda or coreml.
	ExecutionProvider string `json:"execution_provider" yaml:"execution_provider" mapstructure:"execution_provider"`
}

// DefaultConfig returns the darknet YOLO input geometry.
//
// @example
// config := DefaultConfig()
// config.Config = "yolov3.cfg"
// config.Weights = "yolov3.weights"
func DefaultConfig() Config {
	return Config{
		Backend:    EngineDarknet,
		InputShape: image.Point{X: 416, Y: 416},
		ONNX: ONNXConfig{
			InputName:         "images",
			OutputNames:       []string{"output0"},
			ExecutionProvider: "cpu",
		},
	}
}

// Validate checks that the configuration names a loadable model.
func (c Config) Validate() error {
	if _, err := ParseEngineType(string(c.Backend)); err != nil {
		return err
	}
	if c.Weights == "" {
		return errors.Wrap(postprocess.ErrConfiguration, "model weights are required")
	}
	if c.Backend == EngineDarknet && c.Config == "" {
		return errors.Wrap(postprocess.ErrConfiguration, "darknet backend requires a network config")
	}
	if c.InputShape.X <= 0 || c.InputShape.Y <= 0 {
		return errors.Wrapf(postprocess.ErrConfiguration, "invalid input shape %v", c.InputShape)
	}
	if c.Backend == EngineONNX {
		if c.ONNX.InputName == "" || len(c.ONNX.OutputNames) == 0 {
			return errors.Wrap(postprocess.ErrConfiguration, "onnx backend requires input and output names")
		}
		if !validOutputShape(c.ONNX.OutputShape) {
			return errors.Wrapf(postprocess.ErrConfiguration,
				"onnx output shape %v, want (rows, cols) or (1, rows, cols) with at least %d cols",
				c.ONNX.OutputShape, postprocess.MinRowSize)
		}
	}
	return nil
}

func validOutputShape(shape []int64) bool {
	switch {
	case len(shape) == 3 && shape[0] == 1:
		shape = shape[1:]
	case len(shape) != 2:
		return false
	}
	return shape[0] > 0 && shape[1] >= postprocess.MinRowSize
}
