// Package search implements the vector index over SQLite (in-process
// cosine ranking) and PostgreSQL (pgvector).
package search

import (
	"math"
	"sort"
)

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector is zero-length or the dimensions differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

type scored struct {
	index int
	score float64
}

// topK returns the indices of the k highest-scoring candidates, best first.
// Ties keep insertion order.
func topK(scores []float64, k int) []scored {
	ranked := make([]scored, len(scores))
	for i, s := range scores {
		ranked[i] = scored{index: i, score: s}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}
