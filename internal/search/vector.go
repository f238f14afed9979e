package search

import "math"

// Vector is an embedding attached to a document ID.
type Vector struct {
	ID     string
	Values []float64
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Mismatched lengths, empty vectors and zero vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopKBySimilarity ranks vecs against query and keeps the best k.
// Vectors that cannot be compared (wrong dimension, empty) are skipped.
func TopKBySimilarity(query []float64, vecs []Vector, k int) []Result {
	if len(query) == 0 || len(vecs) == 0 {
		return nil
	}
	if k <= 0 {
		k = 5
	}
	out := make([]Result, 0, len(vecs))
	for _, v := range vecs {
		if len(v.Values) != len(query) {
			continue
		}
		out = append(out, Result{ID: v.ID, Score: Cosine(query, v.Values)})
	}
	if len(out) == 0 {
		return nil
	}
	sortResults(out)
	if k > len(out) {
		k = len(out)
	}
	return out[:k]
}
