package jsonfile

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/attendance/internal/database"
	"github.com/kozaktomas/attendance/internal/facematch"
)

// registryFile is the on-disk shape: parallel arrays where encodings[i] belongs to
// names[i]. A name may repeat; each occurrence is one more reference embedding.
type registryFile struct {
	Encodings [][]float64 `json:"encodings"`
	Names     []string    `json:"names"`
}

func (f *registryFile) check() error {
	if len(f.Encodings) != len(f.Names) {
		return fmt.Errorf("encodings and names differ in length: %d vs %d", len(f.Encodings), len(f.Names))
	}
	for i, name := range f.Names {
		if len(f.Encodings[i]) == 0 {
			return fmt.Errorf("entry %d (%q) has an empty encoding", i, name)
		}
		if _, err := database.ValidateName(name); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// registry groups entries under their canonical name, so "Bob" and "Bob " are one identity.
func (f *registryFile) registry() facematch.Registry {
	var reg facematch.Registry
	for i, name := range f.Names {
		reg = reg.Append(facematch.CanonicalName(name), facematch.Embedding(f.Encodings[i]))
	}
	return reg
}

// Registry is a RegistryWriter backed by a JSON file.
type Registry struct {
	doc *document
	mu  sync.RWMutex
}

// NewRegistry returns a registry stored at path. The file is created on first write.
func NewRegistry(path string) *Registry {
	return &Registry{doc: newDocument(path, "registry")}
}

// SetWriteFunc replaces the function used to persist the file.
func (r *Registry) SetWriteFunc(fn WriteFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc.write = fn
}

// Path returns the file location.
func (r *Registry) Path() string {
	return r.doc.path
}

func (r *Registry) readFile() (registryFile, error) {
	var f registryFile
	found, err := r.doc.read(&f)
	if err != nil || !found {
		return registryFile{}, err
	}
	return f, nil
}

// Load returns the registry grouped by name in first-appearance order.
func (r *Registry) Load(ctx context.Context) (facematch.Registry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, err := r.readFile()
	if err != nil {
		log.WithError(err).WithField("path", r.doc.path).Warn("Registry unreadable, using empty registry")
		return facematch.Registry{}, nil
	}
	return f.registry(), nil
}

// List returns identity names in registration order.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	reg, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return reg.Names(), nil
}

// Add appends one (encoding, name) pair.
func (r *Registry) Add(ctx context.Context, name string, emb facematch.Embedding) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := database.ValidateName(name)
	if err != nil {
		return err
	}
	if len(emb) == 0 {
		return fmt.Errorf("%w: embedding must not be empty", database.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.readFile()
	if err != nil {
		return err
	}
	f.Encodings = append(f.Encodings, []float64(emb.Clone()))
	f.Names = append(f.Names, name)

	if err := r.doc.persist(&f); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"name":       name,
		"references": countName(f.Names, name),
	}).Debug("Identity reference stored")
	return nil
}

// Remove deletes every pair belonging to name.
func (r *Registry) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name = facematch.CanonicalName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.readFile()
	if err != nil {
		return err
	}

	out := registryFile{Encodings: [][]float64{}, Names: []string{}}
	for i, n := range f.Names {
		if facematch.CanonicalName(n) == name {
			continue
		}
		out.Encodings = append(out.Encodings, f.Encodings[i])
		out.Names = append(out.Names, n)
	}
	if len(out.Names) == len(f.Names) {
		return fmt.Errorf("%w: identity %q", database.ErrNotFound, name)
	}

	return r.doc.persist(&out)
}

func countName(names []string, name string) int {
	n := 0
	for _, s := range names {
		if facematch.CanonicalName(s) == name {
			n++
		}
	}
	return n
}
