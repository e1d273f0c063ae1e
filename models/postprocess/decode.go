package postprocess

import (
	"image"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/object-detector/common"
)

const (
	// geometryCols is the number of leading geometry values per row (cx, cy, w, h).
	geometryCols = 4
	// scoreOffset is the column of the first class score. Column 4 holds the objectness
	// value, which darknet already folds into the class scores.
	scoreOffset = 5
	// MinRowSize is the smallest valid row: geometry, objectness and one class score.
	MinRowSize = scoreOffset + 1
)

// Decode converts raw output tensors into candidates in image pixel space.
//
// Each tensor must be a float32 matrix of shape (rows, cols), or (1, rows, cols),
// whose rows are laid out as [cx, cy, w, h, objectness, score_0 ... score_{C-1}] in
// normalized coordinates. Rows are decoded in tensor order, then row order, and
// every row yields exactly one candidate; no filtering happens here.
//
// Arguments:
//   - tensors: The raw output tensors returned by the inference engine.
//   - frame: The width (X) and height (Y) of the original image.
//
// Returns:
//   - []Candidate: One candidate per row, in decode order.
//   - error: ErrMalformedTensor if any tensor has an unexpected layout.
func Decode(tensors []tensor.Tensor, frame image.Point) ([]Candidate, error) {
	total := 0
	views := make([]matrix, 0, len(tensors))
	for i, t := range tensors {
		m, err := asMatrix(t)
		if err != nil {
			return nil, errors.Wrapf(err, "output tensor %d", i)
		}
		views = append(views, m)
		total += m.rows
	}

	candidates := make([]Candidate, 0, total)
	for _, m := range views {
		for r := 0; r < m.rows; r++ {
			candidates = append(candidates, decodeRow(m.row(r), frame, len(candidates)))
		}
	}

	return candidates, nil
}

// decodeRow picks the arg-max class of a row and converts its geometry to pixels.
// Every pixel field is truncated toward zero after its own multiplication, and the
// top-left corner is derived from the truncated values.
func decodeRow(row []float32, frame image.Point, index int) Candidate {
	scores := row[scoreOffset:]
	classID := 0
	confidence := scores[0]
	for j := 1; j < len(scores); j++ {
		if scores[j] > confidence {
			confidence = scores[j]
			classID = j
		}
	}

	cx, cy, w, h := row[0], row[1], row[2], row[3]
	centerX := int(cx * float32(frame.X))
	centerY := int(cy * float32(frame.Y))
	width := int(w * float32(frame.X))
	height := int(h * float32(frame.Y))

	return Candidate{
		CenterX:    cx,
		CenterY:    cy,
		Width:      w,
		Height:     h,
		ClassID:    classID,
		Confidence: confidence,
		Box: common.BoundingBox{
			X:      centerX - width/2,
			Y:      centerY - height/2,
			Width:  width,
			Height: height,
		},
		Index: index,
	}
}

// matrix is a row-major float32 view over a validated output tensor.
type matrix struct {
	data       []float32
	rows, cols int
}

func (m matrix) row(r int) []float32 {
	return m.data[r*m.cols : (r+1)*m.cols]
}

// asMatrix validates the layout of t and exposes its backing data.
func asMatrix(t tensor.Tensor) (matrix, error) {
	if t == nil {
		return matrix{}, errors.Wrap(ErrMalformedTensor, "nil tensor")
	}
	if t.Dtype() != tensor.Float32 {
		return matrix{}, errors.Wrapf(ErrMalformedTensor, "dtype %v, want float32", t.Dtype())
	}

	shape := t.Shape()
	var rows, cols int
	switch {
	case shape.Dims() == 2:
		rows, cols = shape[0], shape[1]
	case shape.Dims() == 3 && shape[0] == 1:
		rows, cols = shape[1], shape[2]
	default:
		return matrix{}, errors.Wrapf(ErrMalformedTensor, "shape %v, want (rows, cols)", shape)
	}
	if cols < MinRowSize {
		return matrix{}, errors.Wrapf(ErrMalformedTensor,
			"%d columns, want at least %d (%d geometry + objectness + scores)", cols, MinRowSize, geometryCols)
	}

	if v, ok := t.(tensor.View); ok && v.IsMaterializable() {
		t = v.Materialize()
	}
	data, ok := t.Data().([]float32)
	if !ok || len(data) < rows*cols {
		return matrix{}, errors.Wrapf(ErrMalformedTensor, "backing data does not cover shape %v", shape)
	}

	return matrix{data: data[:rows*cols], rows: rows, cols: cols}, nil
}
