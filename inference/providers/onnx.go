package providers

import (
	"context"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/object-detector/images"
	"github.com/nvr-ai/object-detector/inference"
	"github.com/nvr-ai/object-detector/models/postprocess"
)

// ONNXEngine runs an exported detection model through onnxruntime.
type ONNXEngine struct {
	session *Session
	config  inference.Config
}

var _ inference.Engine = (*ONNXEngine)(nil)

// NewONNXEngine loads config.Weights as an ONNX model.
func NewONNXEngine(config inference.Config) (*ONNXEngine, error) {
	session, err := NewSession(config)
	if err != nil {
		if errors.Is(err, postprocess.ErrConfiguration) {
			return nil, err
		}
		return nil, errors.Wrapf(postprocess.ErrModelLoad, "onnx model %s: %v", config.Weights, err)
	}
	return &ONNXEngine{session: session, config: config}, nil
}

// Infer resizes the frame into the input tensor, runs the session and copies every
// output into a tensor of the configured shape.
func (e *ONNXEngine) Infer(ctx context.Context, frame inference.Frame) ([]tensor.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, ok := frame.(*images.Frame)
	if !ok {
		return nil, errors.Errorf("unsupported frame type %T", frame)
	}
	img, err := f.Image()
	if err != nil {
		return nil, errors.Wrap(postprocess.ErrImageAcquisition, err.Error())
	}
	if err := inference.PrepareInput(img, e.config.InputShape, e.session.Input.GetData()); err != nil {
		return nil, err
	}

	if err := e.session.Session.Run(); err != nil {
		return nil, errors.Wrap(err, "onnx inference failed")
	}

	shape := make([]int, len(e.config.ONNX.OutputShape))
	for i, d := range e.config.ONNX.OutputShape {
		shape[i] = int(d)
	}

	outputs := make([]tensor.Tensor, 0, len(e.session.Outputs))
	for _, out := range e.session.Outputs {
		data := append([]float32(nil), out.GetData()...)
		outputs = append(outputs, tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data)))
	}
	return outputs, nil
}

// Close destroys the session and its tensors.
func (e *ONNXEngine) Close() error {
	return e.session.Close()
}
