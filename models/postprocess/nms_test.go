package postprocess

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/object-detector/common"
)

func box(x, y, w, h int) common.BoundingBox {
	return common.BoundingBox{X: x, Y: y, Width: w, Height: h}
}

func TestApplyGreedyNMS(t *testing.T) {
	config := &NMSConfig{IoUThreshold: DefaultNMSThreshold, ScoreThreshold: 0.3}

	tests := []struct {
		name       string
		candidates []Candidate
		want       []int
	}{
		{
			name: "overlap above threshold keeps the stronger box",
			candidates: []Candidate{
				{Index: 0, Confidence: 0.5, Box: box(40, 30, 40, 40)},
				{Index: 1, Confidence: 0.9, Box: box(30, 30, 40, 40)},
			},
			want: []int{1},
		},
		{
			name: "overlap at or below threshold keeps both",
			candidates: []Candidate{
				{Index: 0, Confidence: 0.9, Box: box(0, 0, 100, 100)},
				{Index: 1, Confidence: 0.8, Box: box(50, 50, 100, 100)},
			},
			want: []int{0, 1},
		},
		{
			name: "disjoint boxes keep selection order",
			candidates: []Candidate{
				{Index: 0, Confidence: 0.4, Box: box(0, 0, 10, 10)},
				{Index: 1, Confidence: 0.8, Box: box(50, 50, 10, 10)},
				{Index: 2, Confidence: 0.6, Box: box(100, 100, 10, 10)},
			},
			want: []int{1, 2, 0},
		},
		{
			name: "suppressed box does not suppress others",
			candidates: []Candidate{
				{Index: 0, Confidence: 0.9, Box: box(0, 0, 10, 10)},
				{Index: 1, Confidence: 0.8, Box: box(3, 0, 10, 10)},
				{Index: 2, Confidence: 0.7, Box: box(6, 0, 10, 10)},
			},
			want: []int{0, 2},
		},
		{
			name: "equal scores keep decode order",
			candidates: []Candidate{
				{Index: 0, Confidence: 0.6, Box: box(0, 0, 10, 10)},
				{Index: 1, Confidence: 0.6, Box: box(0, 0, 10, 10)},
			},
			want: []int{0},
		},
		{
			name: "degenerate boxes never suppress",
			candidates: []Candidate{
				{Index: 0, Confidence: 0.9, Box: box(0, 0, -10, 10)},
				{Index: 1, Confidence: 0.8, Box: box(0, 0, -10, 10)},
			},
			want: []int{0, 1},
		},
		{
			name: "score floor is strict",
			candidates: []Candidate{
				{Index: 0, Confidence: 0.3, Box: box(0, 0, 10, 10)},
				{Index: 1, Confidence: 0.31, Box: box(50, 50, 10, 10)},
			},
			want: []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept := ApplyGreedyNMS(tt.candidates, config)
			got := make([]int, 0, len(kept))
			for _, c := range kept {
				got = append(got, c.Index)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyGreedyNMS_Empty(t *testing.T) {
	config := &NMSConfig{IoUThreshold: DefaultNMSThreshold, ScoreThreshold: 0.5}

	assert.Nil(t, ApplyGreedyNMS(nil, config))
	assert.Nil(t, ApplyGreedyNMS([]Candidate{{Confidence: 0.2}}, config))
}

func TestApplyGreedyNMS_Idempotent(t *testing.T) {
	config := &NMSConfig{IoUThreshold: DefaultNMSThreshold, ScoreThreshold: 0.1}
	candidates := randomCandidates(rand.New(rand.NewSource(7)), 200, 1)

	once := ApplyGreedyNMS(candidates, config)
	twice := ApplyGreedyNMS(once, config)

	assert.Equal(t, once, twice)
}

func TestSuppress_Properties(t *testing.T) {
	config := &NMSConfig{IoUThreshold: DefaultNMSThreshold, ScoreThreshold: 0.25}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		candidates := randomCandidates(rng, 150, 4)
		buckets := Group(Filter(candidates, config.ScoreThreshold))
		kept := Suppress(buckets, config)

		for i := 1; i < len(kept); i++ {
			require.Less(t, kept[i-1].ClassID, kept[i].ClassID, "buckets in ascending class order")
		}

		survivors := make(map[int]bool)
		for _, b := range kept {
			for i, a := range b.Candidates {
				survivors[a.Index] = true
				require.Greater(t, a.Confidence, config.ScoreThreshold)
				for _, other := range b.Candidates[i+1:] {
					require.LessOrEqual(t, a.Box.IoU(other.Box), float64(config.IoUThreshold),
						"kept boxes %d and %d overlap", a.Index, other.Index)
					require.GreaterOrEqual(t, a.Confidence, other.Confidence, "selection order")
				}
			}
		}

		// every dropped candidate has a kept same-class witness scoring at least as high
		for _, b := range buckets {
			var keptInClass []Candidate
			for _, k := range kept {
				if k.ClassID == b.ClassID {
					keptInClass = k.Candidates
				}
			}
			for _, c := range b.Candidates {
				if survivors[c.Index] {
					continue
				}
				found := false
				for _, k := range keptInClass {
					if k.Confidence >= c.Confidence && k.Box.IoU(c.Box) > float64(config.IoUThreshold) {
						found = true
						break
					}
				}
				require.True(t, found, "candidate %d dropped without witness", c.Index)
			}
		}
	}
}

func TestSuppress_OmitsEmptyBuckets(t *testing.T) {
	config := &NMSConfig{IoUThreshold: DefaultNMSThreshold, ScoreThreshold: 0.5}
	buckets := []Bucket{
		{ClassID: 0, Candidates: []Candidate{{Confidence: 0.1}}},
		{ClassID: 3, Candidates: []Candidate{{Confidence: 0.9, Box: box(0, 0, 5, 5)}}},
	}

	kept := Suppress(buckets, config)

	require.Len(t, kept, 1)
	assert.Equal(t, 3, kept[0].ClassID)
}

// randomCandidates draws clustered boxes so that suppression has work to do.
func randomCandidates(rng *rand.Rand, n, classes int) []Candidate {
	candidates := make([]Candidate, n)
	for i := range candidates {
		cx := 50 + rng.Intn(5)*60 + rng.Intn(15)
		cy := 50 + rng.Intn(5)*60 + rng.Intn(15)
		w := 20 + rng.Intn(40)
		h := 20 + rng.Intn(40)
		candidates[i] = Candidate{
			ClassID:    rng.Intn(classes),
			Confidence: float32(rng.Intn(100)) / 100,
			Box:        box(cx-w/2, cy-h/2, w, h),
			Index:      i,
		}
	}
	return candidates
}
