package facematch

import "fmt"

// Policy selects which candidate wins when several references are within threshold.
type Policy string

const (
	// PolicyFirst picks the owner of the first candidate in registry iteration order.
	PolicyFirst Policy = "first"
	// PolicyBest picks the owner of the closest candidate. Equal distances keep
	// the earlier reference in iteration order.
	PolicyBest Policy = "best"
)

// ParsePolicy converts a config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFirst, "":
		return PolicyFirst, nil
	case PolicyBest:
		return PolicyBest, nil
	default:
		return "", fmt.Errorf("unknown match policy %q", s)
	}
}

// Result is the outcome of classifying one probe embedding.
type Result struct {
	Matched  bool    `json:"matched"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// Label returns the matched name, or Unknown.
func (r Result) Label() string {
	if !r.Matched {
		return Unknown
	}
	return r.Name
}

// Match classifies probe against registry. A reference is a candidate only when its
// distance is strictly below threshold. Any length mismatch aborts with ErrDimensionMismatch.
func Match(probe Embedding, registry Registry, threshold float64, policy Policy) (Result, error) {
	best := Result{Name: Unknown}

	for _, id := range registry.Identities {
		for _, ref := range id.Embeddings {
			d, err := EuclideanDistance(probe, ref)
			if err != nil {
				return Result{}, err
			}
			if d >= threshold {
				continue
			}
			if policy != PolicyBest {
				return Result{Matched: true, Name: id.Name, Distance: d}, nil
			}
			if !best.Matched || d < best.Distance {
				best = Result{Matched: true, Name: id.Name, Distance: d}
			}
		}
	}

	return best, nil
}
