// Package facematch classifies face embeddings against a registry of known identities.
// Everything here is pure: nothing touches storage, and every function is safe for concurrent use.
package facematch

// Unknown is the label given to a face that matched no registered identity.
const Unknown = "Unknown"

// Embedding is a fixed-length face descriptor produced by the extractor.
type Embedding []float64

// Clone returns an independent copy of the embedding.
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// Detection is one face found in a frame.
type Detection struct {
	Box       BoundingBox `json:"box"`
	Embedding Embedding   `json:"embedding"`
}

// Identity is a named enrollee with one or more reference embeddings, oldest first.
type Identity struct {
	Name       string      `json:"name"`
	Embeddings []Embedding `json:"embeddings"`
}

// Registry is a snapshot of all enrolled identities in registration order.
type Registry struct {
	Identities []Identity `json:"identities"`
}

// Reference is a single stored embedding together with its owner.
type Reference struct {
	Name      string
	Embedding Embedding
}

// Count returns the number of identities.
func (r Registry) Count() int {
	return len(r.Identities)
}

// Names returns identity names in registration order.
func (r Registry) Names() []string {
	names := make([]string, len(r.Identities))
	for i, id := range r.Identities {
		names[i] = id.Name
	}
	return names
}

// Find returns the identity with the given name.
func (r Registry) Find(name string) (Identity, bool) {
	for _, id := range r.Identities {
		if id.Name == name {
			return id, true
		}
	}
	return Identity{}, false
}

// References flattens the registry into iteration order: identities in
// registration order, each identity's embeddings in the order they were added.
func (r Registry) References() []Reference {
	var refs []Reference
	for _, id := range r.Identities {
		for _, emb := range id.Embeddings {
			refs = append(refs, Reference{Name: id.Name, Embedding: emb})
		}
	}
	return refs
}

// Clone returns a deep copy so callers can hold it without sharing backing arrays.
func (r Registry) Clone() Registry {
	out := Registry{Identities: make([]Identity, len(r.Identities))}
	for i, id := range r.Identities {
		embs := make([]Embedding, len(id.Embeddings))
		for j, e := range id.Embeddings {
			embs[j] = e.Clone()
		}
		out.Identities[i] = Identity{Name: id.Name, Embeddings: embs}
	}
	return out
}

// Append adds an embedding for name, creating the identity at the end when absent.
// The receiver is not modified.
func (r Registry) Append(name string, emb Embedding) Registry {
	out := r.Clone()
	for i := range out.Identities {
		if out.Identities[i].Name == name {
			out.Identities[i].Embeddings = append(out.Identities[i].Embeddings, emb.Clone())
			return out
		}
	}
	out.Identities = append(out.Identities, Identity{Name: name, Embeddings: []Embedding{emb.Clone()}})
	return out
}

// Without returns a copy of the registry with name removed, and whether it was present.
func (r Registry) Without(name string) (Registry, bool) {
	out := Registry{Identities: make([]Identity, 0, len(r.Identities))}
	found := false
	for _, id := range r.Identities {
		if id.Name == name {
			found = true
			continue
		}
		out.Identities = append(out.Identities, id)
	}
	return out.Clone(), found
}

// Dim returns the length of the first stored embedding, or 0 for an empty registry.
func (r Registry) Dim() int {
	for _, id := range r.Identities {
		for _, e := range id.Embeddings {
			return len(e)
		}
	}
	return 0
}
