// Package providers - Inference sessions.
package providers

import (
	"os"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/object-detector/inference"
)

// Session represents a model session from the onnxruntime.
type Session struct {
	Session *ort.AdvancedSession
	Input   *ort.Tensor[float32]
	Outputs []*ort.Tensor[float32]
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	if s.Input != nil {
		s.Input.Destroy()
		s.Input = nil
	}

	for _, output := range s.Outputs {
		output.Destroy()
	}
	s.Outputs = nil

	if s.Session != nil {
		err := s.Session.Destroy()
		s.Session = nil
		if err != nil {
			return errors.Wrap(err, "error destroying ORT session")
		}
	}

	return nil
}

// NewSession creates an ONNX Runtime session with preallocated input and output tensors.
//
// Order of operations:
//  1. Library path check: Ensures native runtime is accessible.
//  2. Environment setup: Loads the native library once per process.
//  3. Tensor allocation: One (1, 3, H, W) input and one tensor per configured output.
//  4. Session options: Graph optimizations and the configured execution provider.
//  5. Session creation: Loads the model and binds the tensors.
//
// Arguments:
//   - config: The engine configuration. config.Weights is the .onnx model path.
//
// Returns:
//   - *Session: The session holding the native handles. The caller must Close it.
//   - error: An error if the session creation fails.
func NewSession(config inference.Config) (*Session, error) {
	provider, err := ParseProvider(config.ONNX.ExecutionProvider)
	if err != nil {
		return nil, err
	}

	libPath := GetSharedLibPath(config.ONNX.LibraryPath)
	if _, err := os.Stat(libPath); err != nil {
		return nil, errors.Wrapf(err, "ONNX Runtime library not found at %q", libPath)
	}

	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "error initializing ORT environment")
		}
	}

	s := &Session{}
	s.Input, err = ort.NewEmptyTensor[float32](
		ort.NewShape(1, 3, int64(config.InputShape.Y), int64(config.InputShape.X)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}

	outputs := make([]ort.Value, 0, len(config.ONNX.OutputNames))
	for range config.ONNX.OutputNames {
		output, err := ort.NewEmptyTensor[float32](ort.NewShape(config.ONNX.OutputShape...))
		if err != nil {
			s.Close()
			return nil, errors.Wrap(err, "error creating output tensor")
		}
		s.Outputs = append(s.Outputs, output)
		outputs = append(outputs, output)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "error creating ORT session options")
	}
	defer options.Destroy()

	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)
	if err := appendExecutionProvider(options, provider); err != nil {
		s.Close()
		return nil, err
	}

	s.Session, err = ort.NewAdvancedSession(
		config.Weights,
		[]string{config.ONNX.InputName},
		config.ONNX.OutputNames,
		[]ort.Value{s.Input},
		outputs,
		options,
	)
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "error creating ORT session")
	}

	return s, nil
}
