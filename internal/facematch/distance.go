package facematch

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch means two embeddings of different length were compared.
// It indicates a misconfigured extractor or store and is never a per-frame condition.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// EuclideanDistance computes the L2 distance between two embeddings.
func EuclideanDistance(a, b Embedding) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// CheckDim verifies that every embedding in the registry has length dim.
func CheckDim(r Registry, dim int) error {
	for _, id := range r.Identities {
		for i, e := range id.Embeddings {
			if len(e) != dim {
				return fmt.Errorf("%w: identity %q reference %d has %d components, expected %d",
					ErrDimensionMismatch, id.Name, i, len(e), dim)
			}
		}
	}
	return nil
}
