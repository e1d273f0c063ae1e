// Package providers - gocv and onnxruntime backed inference engines.
package providers

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/object-detector/inference"
	"github.com/nvr-ai/object-detector/models/postprocess"
)

// Provider represents different ONNX Runtime execution providers
type Provider string

const (
	// CPUExecutionProvider uses CPU for inference
	CPUExecutionProvider Provider = "cpu"

	// CUDAExecutionProvider uses NVIDIA CUDA for GPU acceleration
	CUDAExecutionProvider Provider = "cuda"

	// CoreMLExecutionProvider uses Apple CoreML for macOS/iOS acceleration
	CoreMLExecutionProvider Provider = "coreml"
)

// ParseProvider validates an execution provider name. An empty name selects the CPU.
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(name); p {
	case "":
		return CPUExecutionProvider, nil
	case CPUExecutionProvider, CUDAExecutionProvider, CoreMLExecutionProvider:
		return p, nil
	default:
		return "", errors.Wrapf(postprocess.ErrConfiguration, "unknown execution provider %q", name)
	}
}

// appendExecutionProvider enables p on options. The CPU provider is always available
// and needs no registration.
func appendExecutionProvider(options *ort.SessionOptions, p Provider) error {
	switch p {
	case CUDAExecutionProvider:
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return errors.Wrap(err, "error creating CUDA options")
		}
		defer cuda.Destroy()
		if err := cuda.Update(map[string]string{"device_id": "0"}); err != nil {
			return errors.Wrap(err, "error configuring CUDA")
		}
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return errors.Wrap(err, "error enabling CUDA")
		}
	case CoreMLExecutionProvider:
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			return errors.Wrap(err, "error enabling CoreML")
		}
	}
	return nil
}

// NewEngine loads the network described by config with the selected backend.
//
// Arguments:
//   - config: The validated engine configuration.
//
// Returns:
//   - inference.Engine: The loaded engine. The caller must Close it.
//   - error: An error wrapping postprocess.ErrModelLoad if the model cannot be loaded.
func NewEngine(config inference.Config) (inference.Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Backend {
	case inference.EngineONNX:
		return NewONNXEngine(config)
	default:
		return NewDarknetEngine(config)
	}
}
