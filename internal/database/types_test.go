package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kozaktomas/attendance/internal/config"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2024-01-10", false},
		{"2024-02-29", false},
		{"2023-02-29", true},
		{"2024-1-10", true},
		{"2024-01-10T00:00:00", true},
		{"10.01.2024", true},
		{"", true},
		{" 2024-01-10", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseDate(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("ParseDate(%q) error = %v, want ErrInvalidInput", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tc.input, err)
			}
			if got != tc.input {
				t.Errorf("ParseDate(%q) = %q", tc.input, got)
			}
		})
	}
}

func TestNewRecord(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	when := time.Date(2024, 3, 1, 23, 30, 5, 999, time.UTC).In(loc)

	rec := NewRecord("Bob", when)
	if rec.Date != "2024-03-02" || rec.Time != "00:30:05" {
		t.Errorf("NewRecord() = %+v, want date in the time's own location", rec)
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"Alice", "Alice", false},
		{"  Alice   Smith ", "Alice Smith", false},
		{"", "", true},
		{"   \t", "", true},
		{"bad\x00name", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ValidateName(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("ValidateName(%q) error = %v, want ErrInvalidInput", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ValidateName(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestOutcomeAlreadyPresent(t *testing.T) {
	if (RecordOutcome{Created: true}).AlreadyPresent() {
		t.Error("created outcome must not be AlreadyPresent")
	}
	if !(RecordOutcome{}).AlreadyPresent() {
		t.Error("zero outcome must be AlreadyPresent")
	}
}

func TestOpenBackend(t *testing.T) {
	closed := false
	RegisterBackend("test-provider", func(ctx context.Context, cfg *config.Config) (*Backend, error) {
		return NewBackend("", nil, nil, func() error { closed = true; return nil }), nil
	})

	b, err := OpenBackend(context.Background(), &config.Config{Backend: "test-provider"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Name != "test-provider" {
		t.Errorf("expected backend name to default to config value, got %q", b.Name)
	}
	if err := b.Close(); err != nil || !closed {
		t.Errorf("Close() = %v, closed = %v", err, closed)
	}

	if _, err := OpenBackend(context.Background(), &config.Config{Backend: "nope"}); err == nil {
		t.Error("expected error for unregistered backend")
	}
}

func TestOpenBackend_WrapsError(t *testing.T) {
	RegisterBackend("failing-provider", func(ctx context.Context, cfg *config.Config) (*Backend, error) {
		return nil, ErrStorageUnreadable
	})

	_, err := OpenBackend(context.Background(), &config.Config{Backend: "failing-provider"})
	if !errors.Is(err, ErrStorageUnreadable) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestRegisterBackend_DuplicatePanics(t *testing.T) {
	RegisterBackend("dup-provider", func(ctx context.Context, cfg *config.Config) (*Backend, error) { return nil, nil })
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	RegisterBackend("dup-provider", func(ctx context.Context, cfg *config.Config) (*Backend, error) { return nil, nil })
}
