package domain

import (
	"math"
	"strings"
)

// Evaluation thresholds. A generation passes when either is met.
const (
	SimilarityThreshold   = 0.80
	TokenOverlapThreshold = 0.50
)

// similarityEpsilon keeps cosine similarity defined for zero vectors.
const similarityEpsilon = 1e-8

// EvaluationResult compares a generated record against an expected one.
type EvaluationResult struct {
	CosineSimilarity float64 `json:"cosine_similarity"`
	TokenOverlap     float64 `json:"token_overlap"`
	Passed           bool    `json:"passed"`
}

// NewEvaluationResult applies the pass thresholds to the two scores.
func NewEvaluationResult(cosine, overlap float64) EvaluationResult {
	return EvaluationResult{
		CosineSimilarity: cosine,
		TokenOverlap:     overlap,
		Passed:           cosine >= SimilarityThreshold || overlap >= TokenOverlapThreshold,
	}
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different length compare over the shorter prefix.
func CosineSimilarity(a, b Embedding) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + similarityEpsilon)
}

// TokenOverlap returns the Jaccard index of the lowercase whitespace
// tokens of a and b. Two empty texts overlap fully.
func TokenOverlap(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}

	shared := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = struct{}{}
	}
	return set
}
