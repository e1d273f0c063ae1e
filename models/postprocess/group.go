package postprocess

import (
	"cmp"
	"slices"
)

// Group partitions candidates into per-class buckets.
//
// Buckets are returned in ascending class id. Within a bucket candidates keep the
// order they had in the input, which is decode order when fed from Filter.
func Group(candidates []Candidate) []Bucket {
	if len(candidates) == 0 {
		return nil
	}

	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		return cmp.Compare(a.ClassID, b.ClassID)
	})

	var buckets []Bucket
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].ClassID == sorted[start].ClassID {
			continue
		}
		buckets = append(buckets, Bucket{
			ClassID:    sorted[start].ClassID,
			Candidates: sorted[start:i:i],
		})
		start = i
	}

	return buckets
}
