package postprocess

// Filter keeps the candidates whose confidence is strictly greater than threshold.
//
// A candidate scoring exactly threshold is dropped. The input slice is not modified
// and the relative order of kept candidates is preserved.
func Filter(candidates []Candidate, threshold float32) []Candidate {
	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence > threshold {
			kept = append(kept, c)
		}
	}
	return kept
}
