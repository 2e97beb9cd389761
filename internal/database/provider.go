package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kozaktomas/attendance/internal/config"
)

// Backend bundles the stores produced by one storage implementation.
type Backend struct {
	Name     string
	Registry RegistryWriter
	Ledger   LedgerWriter
	closeFn  func() error
}

// NewBackend wraps stores with an optional close function.
func NewBackend(name string, registry RegistryWriter, ledger LedgerWriter, closeFn func() error) *Backend {
	return &Backend{Name: name, Registry: registry, Ledger: ledger, closeFn: closeFn}
}

// Close releases backend resources.
func (b *Backend) Close() error {
	if b == nil || b.closeFn == nil {
		return nil
	}
	return b.closeFn()
}

// OpenFunc constructs a backend from configuration.
type OpenFunc func(ctx context.Context, cfg *config.Config) (*Backend, error)

var (
	backends   = map[string]OpenFunc{}
	backendsMu sync.RWMutex
)

// RegisterBackend registers a storage implementation under name.
// This is called from init() of backend packages to avoid import cycles.
func RegisterBackend(name string, open OpenFunc) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, dup := backends[name]; dup {
		panic("database: backend registered twice: " + name)
	}
	backends[name] = open
}

// Backends returns the names of registered implementations, sorted.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// OpenBackend opens the backend selected by cfg.Backend.
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	backendsMu.RLock()
	open, ok := backends[cfg.Backend]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage backend %q not registered (available: %v)", cfg.Backend, Backends())
	}

	b, err := open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", cfg.Backend, err)
	}
	if b.Name == "" {
		b.Name = cfg.Backend
	}
	return b, nil
}
