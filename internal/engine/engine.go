// Package engine ties the matcher, the registry and the ledger together behind the
// operations used by the CLI and the HTTP API.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/attendance/internal/database"
	"github.com/kozaktomas/attendance/internal/facematch"
	"github.com/kozaktomas/attendance/internal/metrics"
)

var (
	// ErrNoFaceDetected means the capture step found no face to register.
	ErrNoFaceDetected = errors.New("no face detected")
	// ErrEncodingFailed means a face was found but no embedding could be extracted.
	ErrEncodingFailed = errors.New("failed to encode face")
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Options configures an Engine. Registry and Ledger are required.
type Options struct {
	Registry  database.RegistryWriter
	Ledger    database.LedgerWriter
	Threshold float64
	Policy    facematch.Policy
	Dim       int
	Location  *time.Location
	Clock     Clock
	Metrics   *metrics.Metrics
}

// Engine is safe for concurrent use. Matching reads an immutable registry
// snapshot; registry mutations are serialized and replace the snapshot only after
// the store accepted them.
type Engine struct {
	registry  database.RegistryWriter
	ledger    database.LedgerWriter
	threshold float64
	policy    facematch.Policy
	dim       int
	loc       *time.Location
	clock     Clock
	metrics   *metrics.Metrics

	writeMu  sync.Mutex
	mu       sync.RWMutex
	snapshot facematch.Registry
	index    *facematch.IdentityIndex
}

// New loads the registry and verifies every stored embedding has length opts.Dim.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Registry == nil || opts.Ledger == nil {
		return nil, errors.New("engine requires a registry and a ledger")
	}
	if opts.Threshold <= 0 {
		return nil, fmt.Errorf("match threshold must be positive, got %v", opts.Threshold)
	}
	if opts.Dim <= 0 {
		return nil, fmt.Errorf("embedding dim must be positive, got %d", opts.Dim)
	}
	if opts.Policy == "" {
		opts.Policy = facematch.PolicyFirst
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = ClockFunc(time.Now)
	}

	e := &Engine{
		registry:  opts.Registry,
		ledger:    opts.Ledger,
		threshold: opts.Threshold,
		policy:    opts.Policy,
		dim:       opts.Dim,
		loc:       opts.Location,
		clock:     opts.Clock,
		metrics:   opts.Metrics,
	}
	if err := e.Reload(ctx); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"identities": e.Snapshot().Count(),
		"threshold":  e.threshold,
		"policy":     e.policy,
		"dim":        e.dim,
		"location":   e.loc.String(),
	}).Debug("Engine ready")
	return e, nil
}

// Reload replaces the snapshot with the current contents of the registry store.
func (e *Engine) Reload(ctx context.Context) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	reg, err := e.registry.Load(ctx)
	if err != nil {
		e.metrics.IncrementStorageError("load")
		return fmt.Errorf("loading registry: %w", err)
	}
	if err := facematch.CheckDim(reg, e.dim); err != nil {
		return fmt.Errorf("registry does not match configured embedding size: %w", err)
	}
	e.setSnapshot(reg)
	return nil
}

// Snapshot returns the registry currently used for matching. Callers must not modify it.
func (e *Engine) Snapshot() facematch.Registry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

func (e *Engine) setSnapshot(reg facematch.Registry) {
	e.mu.Lock()
	e.snapshot = reg
	e.index = nil
	e.mu.Unlock()
	e.metrics.SetIdentities(reg.Count())
}

// Now returns the engine clock's current time in the configured location.
func (e *Engine) Now() time.Time {
	return e.clock.Now().In(e.loc)
}

// Location returns the location used to derive attendance dates.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Dim returns the configured embedding length.
func (e *Engine) Dim() int {
	return e.dim
}

// ListIdentities returns enrolled names in registration order.
func (e *Engine) ListIdentities(ctx context.Context) ([]string, error) {
	return e.Snapshot().Names(), nil
}

func (e *Engine) checkDim(emb facematch.Embedding) error {
	if len(emb) != e.dim {
		return fmt.Errorf("%w: got %d components, expected %d", facematch.ErrDimensionMismatch, len(emb), e.dim)
	}
	return nil
}

// Nearest returns the k references closest to probe. Backends with native
// vector search answer directly; otherwise an in-memory index over the snapshot is used.
func (e *Engine) Nearest(ctx context.Context, probe facematch.Embedding, k int) ([]database.Neighbor, error) {
	if err := e.checkDim(probe); err != nil {
		return nil, err
	}
	if ns, ok := e.registry.(database.NearestSearcher); ok {
		return ns.Nearest(ctx, probe, k)
	}

	e.mu.Lock()
	if e.index == nil {
		e.index = facematch.NewIdentityIndex(e.snapshot)
	}
	idx := e.index
	e.mu.Unlock()

	out, err := idx.Search(probe, k)
	if errors.Is(err, facematch.ErrIndexEmpty) {
		return []database.Neighbor{}, nil
	}
	return out, err
}
