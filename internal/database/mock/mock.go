// Package mock provides in-memory implementations of database interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kozaktomas/attendance/internal/database"
	"github.com/kozaktomas/attendance/internal/facematch"
)

// MockRegistry is an in-memory database.RegistryWriter
type MockRegistry struct {
	mu  sync.RWMutex
	reg facematch.Registry

	// Error injection
	LoadError   error
	AddError    error
	RemoveError error

	AddCalls    int
	RemoveCalls int
}

// NewMockRegistry creates a new mock registry
func NewMockRegistry() *MockRegistry {
	return &MockRegistry{}
}

// Seed adds an embedding without going through error injection
func (m *MockRegistry) Seed(name string, emb facematch.Embedding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reg = m.reg.Append(name, emb)
}

// Load returns a deep copy of the registry
func (m *MockRegistry) Load(ctx context.Context) (facematch.Registry, error) {
	if m.LoadError != nil {
		return facematch.Registry{}, m.LoadError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reg.Clone(), nil
}

// List returns identity names in registration order
func (m *MockRegistry) List(ctx context.Context) ([]string, error) {
	reg, err := m.Load(ctx)
	if err != nil {
		return nil, err
	}
	return reg.Names(), nil
}

// Add appends a reference embedding
func (m *MockRegistry) Add(ctx context.Context, name string, emb facematch.Embedding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddCalls++
	name, err := database.ValidateName(name)
	if err != nil {
		return err
	}
	if m.AddError != nil {
		return m.AddError
	}
	m.reg = m.reg.Append(name, emb)
	return nil
}

// Remove deletes an identity
func (m *MockRegistry) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveCalls++
	if m.RemoveError != nil {
		return m.RemoveError
	}
	next, found := m.reg.Without(facematch.CanonicalName(name))
	if !found {
		return fmt.Errorf("%w: identity %q", database.ErrNotFound, name)
	}
	m.reg = next
	return nil
}

// MockLedger is an in-memory database.LedgerWriter
type MockLedger struct {
	mu      sync.Mutex
	records []database.AttendanceRecord

	// Error injection
	ListError   error
	RecordError error
	DeleteError error

	RecordCalls int
}

// NewMockLedger creates a new mock ledger
func NewMockLedger() *MockLedger {
	return &MockLedger{}
}

// Seed appends a record unconditionally
func (m *MockLedger) Seed(recs ...database.AttendanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, recs...)
}

// Records returns a copy of all records
func (m *MockLedger) Records() []database.AttendanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.AttendanceRecord{}, m.records...)
}

// List returns records for date, or all records when date is empty
func (m *MockLedger) List(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []database.AttendanceRecord{}
	for _, r := range m.records {
		if date == "" || r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

// CountByDate returns the number of records for date
func (m *MockLedger) CountByDate(ctx context.Context, date string) (int, error) {
	recs, err := m.List(ctx, date)
	return len(recs), err
}

// Record stores attendance once per name per day
func (m *MockLedger) Record(ctx context.Context, name string, when time.Time) (database.RecordOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordCalls++
	rec := database.NewRecord(name, when)
	for _, r := range m.records {
		if r.Name == rec.Name && r.Date == rec.Date {
			return database.RecordOutcome{Record: r}, nil
		}
	}
	if m.RecordError != nil {
		return database.RecordOutcome{}, m.RecordError
	}
	m.records = append(m.records, rec)
	return database.RecordOutcome{Created: true, Record: rec}, nil
}

// DeleteByDate removes all records for date
func (m *MockLedger) DeleteByDate(ctx context.Context, date string) (int, error) {
	if _, err := database.ParseDate(date); err != nil {
		return 0, err
	}
	return m.deleteWhere(func(r database.AttendanceRecord) bool { return r.Date == date })
}

// DeleteByIdentity removes all records for name
func (m *MockLedger) DeleteByIdentity(ctx context.Context, name string) (int, error) {
	return m.deleteWhere(func(r database.AttendanceRecord) bool { return r.Name == name })
}

func (m *MockLedger) deleteWhere(drop func(database.AttendanceRecord) bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteError != nil {
		return 0, m.DeleteError
	}
	kept := m.records[:0:0]
	for _, r := range m.records {
		if !drop(r) {
			kept = append(kept, r)
		}
	}
	removed := len(m.records) - len(kept)
	m.records = kept
	return removed, nil
}

// Compile-time interface checks
var (
	_ database.RegistryWriter = (*MockRegistry)(nil)
	_ database.LedgerWriter   = (*MockLedger)(nil)
)
