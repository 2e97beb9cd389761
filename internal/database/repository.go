package database

import (
	"context"
	"time"

	"github.com/kozaktomas/attendance/internal/facematch"
)

// RegistryReader provides read-only access to enrolled identities
type RegistryReader interface {
	// Load returns a snapshot of the registry. A missing or unparsable store
	// yields an empty registry rather than an error.
	Load(ctx context.Context) (facematch.Registry, error)
	// List returns identity names in registration order
	List(ctx context.Context) ([]string, error)
}

// RegistryWriter provides write access to enrolled identities
type RegistryWriter interface {
	RegistryReader

	// Add appends a reference embedding for name, creating the identity if absent.
	// The change is durable before Add returns.
	Add(ctx context.Context, name string, emb facematch.Embedding) error

	// Remove deletes the identity and all its embeddings. Returns ErrNotFound
	// when the name is not registered.
	Remove(ctx context.Context, name string) error
}

// LedgerReader provides read-only access to attendance records
type LedgerReader interface {
	// List returns records in insertion order. An empty date returns every record.
	List(ctx context.Context, date string) ([]AttendanceRecord, error)
	// CountByDate returns the number of records for the given date
	CountByDate(ctx context.Context, date string) (int, error)
}

// LedgerWriter provides write access to attendance records
type LedgerWriter interface {
	LedgerReader

	// Record stores attendance for name on the date of when, unless a record for
	// that (name, date) already exists. The check and the append are atomic.
	Record(ctx context.Context, name string, when time.Time) (RecordOutcome, error)

	// DeleteByDate removes all records for date and returns how many were removed.
	DeleteByDate(ctx context.Context, date string) (int, error)

	// DeleteByIdentity removes all records for name and returns how many were removed.
	// It is never invoked as a side effect of identity removal.
	DeleteByIdentity(ctx context.Context, name string) (int, error)
}

// NearestSearcher is implemented by backends that can answer nearest-reference
// queries natively
type NearestSearcher interface {
	Nearest(ctx context.Context, probe facematch.Embedding, k int) ([]Neighbor, error)
}
