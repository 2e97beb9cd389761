package facematch

import (
	"errors"
	"sort"
	"sync"

	"github.com/coder/hnsw"
)

// Index graph tuning.
const (
	IndexMaxNeighbors = 16
	IndexEfSearch     = 64
)

// ErrIndexEmpty is returned when searching an index built from an empty registry.
var ErrIndexEmpty = errors.New("index not initialized")

// Neighbor is one nearest-reference hit with its exact Euclidean distance.
type Neighbor struct {
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// IdentityIndex is an approximate nearest-neighbour graph over every reference
// embedding of a registry snapshot. It answers diagnostic "who is closest"
// questions; attendance matching always goes through Match.
type IdentityIndex struct {
	graph *hnsw.Graph[int]
	refs  []Reference
	mu    sync.RWMutex
}

// NewIdentityIndex builds an index from the registry.
func NewIdentityIndex(r Registry) *IdentityIndex {
	idx := &IdentityIndex{}
	idx.Rebuild(r)
	return idx
}

// Rebuild replaces the index contents with the given registry.
func (x *IdentityIndex) Rebuild(r Registry) {
	refs := r.Clone().References()

	x.mu.Lock()
	defer x.mu.Unlock()

	x.refs = refs
	if len(refs) == 0 {
		x.graph = nil
		return
	}

	g := hnsw.NewGraph[int]()
	g.M = IndexMaxNeighbors
	g.Ml = 1.0 / float64(IndexMaxNeighbors)
	g.EfSearch = IndexEfSearch
	g.Distance = hnsw.EuclideanDistance

	for i, ref := range refs {
		g.Add(hnsw.MakeNode(i, toVector(ref.Embedding)))
	}
	x.graph = g
}

// Count returns the number of indexed references.
func (x *IdentityIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.refs)
}

// Search returns up to k references closest to probe, nearest first. Distances
// are recomputed exactly in float64 from the stored embeddings.
func (x *IdentityIndex) Search(probe Embedding, k int) ([]Neighbor, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil {
		return nil, ErrIndexEmpty
	}
	if k <= 0 {
		return nil, nil
	}
	if len(probe) != len(x.refs[0].Embedding) {
		_, err := EuclideanDistance(probe, x.refs[0].Embedding)
		return nil, err
	}

	nodes := x.graph.Search(toVector(probe), k)

	out := make([]Neighbor, 0, len(nodes))
	for _, n := range nodes {
		ref := x.refs[n.Key]
		d, err := EuclideanDistance(probe, ref.Embedding)
		if err != nil {
			return nil, err
		}
		out = append(out, Neighbor{Name: ref.Name, Distance: d})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

func toVector(e Embedding) []float32 {
	v := make([]float32, len(e))
	for i, f := range e {
		v[i] = float32(f)
	}
	return v
}
