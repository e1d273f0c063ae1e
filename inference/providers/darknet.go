package providers

import (
	"context"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/object-detector/images"
	"github.com/nvr-ai/object-detector/inference"
	"github.com/nvr-ai/object-detector/models/postprocess"
)

// DarknetEngine runs a darknet cfg/weights network through the OpenCV DNN module.
type DarknetEngine struct {
	net     gocv.Net
	outputs []string
	config  inference.Config
}

var _ inference.Engine = (*DarknetEngine)(nil)

// NewDarknetEngine reads the network and resolves its output layers.
//
// Arguments:
//   - config: The engine configuration with the .cfg in Config and the .weights in Weights.
//
// Returns:
//   - *DarknetEngine: The engine. The caller must Close it.
//   - error: An error wrapping postprocess.ErrModelLoad if the network cannot be read.
func NewDarknetEngine(config inference.Config) (*DarknetEngine, error) {
	net := gocv.ReadNet(config.Weights, config.Config)
	if net.Empty() {
		_ = net.Close()
		return nil, errors.Wrapf(postprocess.ErrModelLoad,
			"failed to load network (config %s, weights %s)", config.Config, config.Weights)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		_ = net.Close()
		return nil, errors.Wrapf(postprocess.ErrModelLoad, "failed to select backend: %v", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		_ = net.Close()
		return nil, errors.Wrapf(postprocess.ErrModelLoad, "failed to select target: %v", err)
	}

	outputs := outputLayerNames(net)
	if len(outputs) == 0 {
		_ = net.Close()
		return nil, errors.Wrap(postprocess.ErrModelLoad, "network has no output layers")
	}

	return &DarknetEngine{net: net, outputs: outputs, config: config}, nil
}

// outputLayerNames maps the 1-based unconnected output layer ids to layer names.
func outputLayerNames(net gocv.Net) []string {
	layerNames := net.GetLayerNames()

	var names []string
	for _, id := range net.GetUnconnectedOutLayers() {
		if id-1 >= 0 && id-1 < len(layerNames) {
			names = append(names, layerNames[id-1])
		}
	}
	return names
}

// Infer builds a 1/255 scaled, RB swapped, uncropped blob at the network input size and
// forwards it through every output layer.
func (e *DarknetEngine) Infer(ctx context.Context, frame inference.Frame) ([]tensor.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, ok := frame.(*images.Frame)
	if !ok {
		return nil, errors.Errorf("unsupported frame type %T", frame)
	}

	blob := gocv.BlobFromImage(f.Mat(), 1.0/255.0, e.config.InputShape, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	e.net.SetInput(blob, "")

	outs := e.net.ForwardLayers(e.outputs)
	defer func() {
		for i := range outs {
			outs[i].Close()
		}
	}()

	tensors := make([]tensor.Tensor, 0, len(outs))
	for i, out := range outs {
		t, err := matToTensor(out)
		if err != nil {
			return nil, errors.Wrapf(err, "output layer %s", e.outputs[i])
		}
		tensors = append(tensors, t)
	}
	return tensors, nil
}

// matToTensor copies a 2-D CV_32F matrix into a (rows, cols) tensor.
func matToTensor(m gocv.Mat) (tensor.Tensor, error) {
	if m.Type() != gocv.MatTypeCV32F {
		return nil, errors.Wrapf(postprocess.ErrMalformedTensor, "output type %v, want CV_32F", m.Type())
	}
	size := m.Size()
	if len(size) != 2 {
		return nil, errors.Wrapf(postprocess.ErrMalformedTensor, "output dims %v, want (rows, cols)", size)
	}
	if !m.IsContinuous() {
		c := m.Clone()
		defer c.Close()
		m = c
	}
	data, err := m.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrapf(postprocess.ErrMalformedTensor, "output data: %v", err)
	}

	backing := append([]float32(nil), data...)
	return tensor.New(tensor.WithShape(size[0], size[1]), tensor.WithBacking(backing)), nil
}

// Close releases the network.
func (e *DarknetEngine) Close() error {
	return e.net.Close()
}
