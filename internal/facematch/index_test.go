package facematch

import (
	"errors"
	"testing"
)

func TestIdentityIndex_Search(t *testing.T) {
	reg := Registry{Identities: []Identity{
		{Name: "Alice", Embeddings: []Embedding{{0, 0, 0}, {0.1, 0, 0}}},
		{Name: "Bob", Embeddings: []Embedding{{1, 1, 1}}},
		{Name: "Carol", Embeddings: []Embedding{{-1, 0, 0}}},
	}}
	idx := NewIdentityIndex(reg)

	if idx.Count() != 4 {
		t.Fatalf("Count() = %d, want 4", idx.Count())
	}

	got, err := idx.Search(Embedding{0.9, 1, 1}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected at least one neighbor")
	}
	if got[0].Name != "Bob" {
		t.Errorf("nearest = %q, want Bob", got[0].Name)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Errorf("results not sorted by distance: %+v", got)
		}
	}
}

func TestIdentityIndex_ExactDistance(t *testing.T) {
	reg := Registry{Identities: []Identity{{Name: "Alice", Embeddings: []Embedding{{0, 0}}}}}
	idx := NewIdentityIndex(reg)

	got, err := idx.Search(Embedding{3, 4}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Distance != 5 {
		t.Errorf("expected exact distance 5, got %+v", got)
	}
}

func TestIdentityIndex_Empty(t *testing.T) {
	idx := NewIdentityIndex(Registry{})
	if _, err := idx.Search(Embedding{1}, 1); !errors.Is(err, ErrIndexEmpty) {
		t.Errorf("expected ErrIndexEmpty, got %v", err)
	}
}

func TestIdentityIndex_DimensionMismatch(t *testing.T) {
	idx := NewIdentityIndex(Registry{Identities: []Identity{{Name: "Alice", Embeddings: []Embedding{{0, 0}}}}})
	if _, err := idx.Search(Embedding{1, 2, 3}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestIdentityIndex_Rebuild(t *testing.T) {
	idx := NewIdentityIndex(Registry{Identities: []Identity{{Name: "Alice", Embeddings: []Embedding{{0}}}}})
	idx.Rebuild(Registry{Identities: []Identity{{Name: "Bob", Embeddings: []Embedding{{0}}}}})

	got, err := idx.Search(Embedding{0}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Bob" {
		t.Errorf("expected Bob after rebuild, got %+v", got)
	}
}
