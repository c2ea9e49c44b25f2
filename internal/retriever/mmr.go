package retriever

import "math"

// cosineSimilarity returns the cosine of the angle between two vectors,
// 0 when either vector is zero or the dimensions differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// selectMMR greedily picks k of the candidate indices maximizing
// lambda*sim(query, c) - (1-lambda)*max(sim(c, selected)).
// candidates are pre-sorted by query similarity; ties keep candidate order,
// so selection is deterministic for a fixed index and query vector.
func selectMMR(query []float32, vectors [][]float32, candidates []int, sims []float64, k int, lambda float64) []int {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	selected := make([]int, 0, k)
	remaining := make([]int, len(candidates))
	copy(remaining, candidates)

	// maxSimToSelected[i] tracks the redundancy term for remaining[i].
	maxSimToSelected := make([]float64, len(remaining))

	for len(selected) < k && len(remaining) > 0 {
		best := 0
		bestScore := math.Inf(-1)
		for i, cand := range remaining {
			score := lambda*sims[cand] - (1-lambda)*maxSimToSelected[i]
			if score > bestScore {
				best = i
				bestScore = score
			}
		}

		chosen := remaining[best]
		selected = append(selected, chosen)
		remaining = append(remaining[:best], remaining[best+1:]...)
		maxSimToSelected = append(maxSimToSelected[:best], maxSimToSelected[best+1:]...)

		for i, cand := range remaining {
			if sim := cosineSimilarity(vectors[chosen], vectors[cand]); sim > maxSimToSelected[i] {
				maxSimToSelected[i] = sim
			}
		}
	}

	return selected
}
