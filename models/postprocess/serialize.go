package postprocess

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// ClassLookup resolves a class id to its display name.
type ClassLookup interface {
	// Name returns the name of class id, or an error wrapping ErrClassIndex.
	Name(id int) (string, error)
}

// Record is the wire form of a detection. Field order is part of the output contract.
type Record struct {
	Token   string `json:"token"`
	Height  int    `json:"height"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Percent int    `json:"percent"`
}

// Percent returns the confidence as a whole percentage, truncated rather than rounded.
func (d Detection) Percent() int {
	return int(math32.Floor(d.Confidence * 100))
}

// Record converts the detection to its wire form.
func (d Detection) Record() Record {
	return Record{
		Token:   d.ClassName,
		Height:  d.Box.Height,
		X:       d.Box.X,
		Y:       d.Box.Y,
		Width:   d.Box.Width,
		Percent: d.Percent(),
	}
}

// Serialize flattens suppressed buckets into named detections.
//
// Buckets are emitted in the order given (ascending class id when produced by
// Group and Suppress) and candidates within a bucket in selection order.
//
// Arguments:
//   - buckets: The suppressed per-class buckets.
//   - classes: The class name table.
//
// Returns:
//   - []Detection: The ordered detections, never nil.
//   - error: An error wrapping ErrClassIndex if a class id has no name.
func Serialize(buckets []Bucket, classes ClassLookup) ([]Detection, error) {
	detections := make([]Detection, 0, len(buckets))
	for _, b := range buckets {
		name, err := classes.Name(b.ClassID)
		if err != nil {
			return nil, err
		}
		for _, c := range b.Candidates {
			detections = append(detections, Detection{
				ClassID:    b.ClassID,
				ClassName:  name,
				Confidence: c.Confidence,
				Box:        c.Box,
			})
		}
	}
	return detections, nil
}

// WriteJSON writes detections to w as an indented JSON array followed by a newline.
// An empty detection list is written as [].
func WriteJSON(w io.Writer, detections []Detection) error {
	records := make([]Record, 0, len(detections))
	for _, d := range detections {
		records = append(records, d.Record())
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return errors.Wrap(err, "failed to encode detections")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write detections")
	}
	return nil
}
