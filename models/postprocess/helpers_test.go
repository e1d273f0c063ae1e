package postprocess

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// names is a ClassLookup over a fixed slice.
type names []string

func (n names) Name(id int) (string, error) {
	if id < 0 || id >= len(n) {
		return "", errors.Wrapf(ErrClassIndex, "class %d", id)
	}
	return n[id], nil
}

// classNames returns count labels "class0", "class1", ...
func classNames(count int) names {
	out := make(names, count)
	for i := range out {
		out[i] = fmt.Sprintf("class%d", i)
	}
	return out
}

// rowsTensor builds a (len(rows), cols) float32 tensor from equal-length rows.
func rowsTensor(rows ...[]float32) tensor.Tensor {
	cols := len(rows[0])
	backing := make([]float32, 0, len(rows)*cols)
	for _, r := range rows {
		backing = append(backing, r...)
	}
	return tensor.New(tensor.WithShape(len(rows), cols), tensor.WithBacking(backing))
}
