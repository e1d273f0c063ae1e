// Package postprocess - provides Non-Maximum Suppression for detection results.
package postprocess

import (
	"cmp"
	"slices"
)

// DefaultNMSThreshold is the IoU above which a lower-scoring box of the same class
// is suppressed.
const DefaultNMSThreshold float32 = 0.4

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	// Overlap threshold for suppression. A box whose IoU with a kept box is strictly
	// greater than this value is discarded.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold" mapstructure:"iou_threshold"`
	// Score floor applied before suppression. Only candidates scoring strictly above
	// it take part.
	ScoreThreshold float32 `json:"score_threshold" yaml:"score_threshold" mapstructure:"score_threshold"`
}

// ApplyGreedyNMS performs standard greedy Non-Maximum Suppression over one class.
//
// Candidates at or below the score floor are dropped first. The rest are ordered by
// confidence, highest first, with ties keeping their input order. The highest
// remaining candidate is kept and every other remaining candidate overlapping it by
// more than the IoU threshold is suppressed, until none remain.
//
// Arguments:
//   - candidates: The candidates of a single class, in decode order.
//   - config: NMS configuration.
//
// Returns:
//   - The kept candidates in selection order. If no candidates survive, returns nil.
func ApplyGreedyNMS(candidates []Candidate, config *NMSConfig) []Candidate {
	detections := Filter(candidates, config.ScoreThreshold)
	n := len(detections)
	if n == 0 {
		return nil
	}

	slices.SortStableFunc(detections, func(a, b Candidate) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})

	threshold := float64(config.IoUThreshold)
	filtered := make([]Candidate, 0, n)
	used := make([]bool, n)

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}

		anchor := detections[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if anchor.Box.IoU(detections[j].Box) > threshold {
				used[j] = true
			}
		}
	}

	return filtered
}

// Suppress runs ApplyGreedyNMS independently on every bucket.
//
// Arguments:
//   - buckets: Per-class buckets in ascending class id, as returned by Group.
//   - config: NMS configuration.
//
// Returns:
//   - The kept candidates of each bucket, in the same bucket order. Buckets left
//     empty after suppression are omitted.
func Suppress(buckets []Bucket, config *NMSConfig) []Bucket {
	kept := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		survivors := ApplyGreedyNMS(b.Candidates, config)
		if len(survivors) == 0 {
			continue
		}
		kept = append(kept, Bucket{ClassID: b.ClassID, Candidates: survivors})
	}
	return kept
}
