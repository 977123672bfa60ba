package textutil

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil or has zero norm.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// BestMatch returns the index of the candidate most similar to want, or -1
// when no candidate reaches threshold. Ties keep the earlier candidate.
func BestMatch(want string, candidates []string, threshold float64) (int, float64) {
	target := NewFingerprint(want)
	best, bestScore := -1, 0.0
	for i, candidate := range candidates {
		score := CosineSimilarity(target, NewFingerprint(candidate))
		if score >= threshold && score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}
