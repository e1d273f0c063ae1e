// Package models - Class name tables for detection models.
package models

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/object-detector/models/postprocess"
)

// BuiltinCOCO names the embedded 80-class COCO table used by darknet YOLO models.
const BuiltinCOCO = "coco"

// ClassTable maps a zero-based class index to its label.
// A ClassTable is read-only after construction and safe to share.
type ClassTable struct {
	names []string
}

// NewClassTable creates a table whose index i is names[i].
func NewClassTable(names []string) *ClassTable {
	return &ClassTable{names: append([]string(nil), names...)}
}

// LoadClassTable reads one class name per line. Empty lines are kept so that line
// numbers stay aligned with class indices.
//
// Arguments:
//   - r: The reader holding the names, one per line.
//
// Returns:
//   - *ClassTable: The loaded table.
//   - error: An error wrapping postprocess.ErrConfiguration if nothing could be read.
func LoadClassTable(r io.Reader) (*ClassTable, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		names = append(names, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(postprocess.ErrConfiguration, "failed to read class names: %v", err)
	}
	if len(names) == 0 {
		return nil, errors.Wrap(postprocess.ErrConfiguration, "class names are empty")
	}
	return &ClassTable{names: names}, nil
}

// LoadClassFile loads a class table from a names file, or returns the embedded COCO
// table when path is BuiltinCOCO.
func LoadClassFile(path string) (*ClassTable, error) {
	if path == BuiltinCOCO {
		return NewClassTable(COCONames), nil
	}
	if path == "" {
		return nil, errors.Wrap(postprocess.ErrConfiguration, "class names file is required")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(postprocess.ErrConfiguration, "failed to open class names %s: %v", path, err)
	}
	defer f.Close()

	table, err := LoadClassTable(f)
	if err != nil {
		return nil, errors.Wrapf(err, "class names %s", path)
	}
	return table, nil
}

// Name returns the class name for a given index.
func (t *ClassTable) Name(idx int) (string, error) {
	if idx < 0 || idx >= len(t.names) {
		return "", errors.Wrapf(postprocess.ErrClassIndex,
			"class %d out of range for %d names (model and class file disagree)", idx, len(t.names))
	}
	return t.names[idx], nil
}

// Len returns the number of classes in the table.
func (t *ClassTable) Len() int {
	return len(t.names)
}

// COCONames is the 80 COCO classes in darknet order (no background class).
var COCONames = []string{
	"person", "bicycle", "car", "motorbike", "aeroplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse",
	"sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie",
	"suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut",
	"cake", "chair", "sofa", "pottedplant", "bed", "diningtable", "toilet", "tvmonitor", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator", "book",
	"clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}
