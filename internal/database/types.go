// Package database defines the storage contracts for the identity registry and the
// attendance ledger, plus the backend registration used to select an implementation.
package database

import (
	"fmt"
	"strings"

	"github.com/kozaktomas/attendance/internal/facematch"
)

// AttendanceRecord is one ledger entry. Date is YYYY-MM-DD and Time is HH:MM:SS,
// both in the engine's configured location.
type AttendanceRecord struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Time string `json:"time"`
}

// RecordOutcome reports whether Record created an entry. When Created is false the
// identity was already present for that date and Record holds the existing entry.
type RecordOutcome struct {
	Created bool             `json:"created"`
	Record  AttendanceRecord `json:"record"`
}

// AlreadyPresent is the negation of Created.
func (o RecordOutcome) AlreadyPresent() bool {
	return !o.Created
}

// Summary is the dashboard aggregate for a single date.
type Summary struct {
	Date                 string `json:"date"`
	TotalKnownIdentities int    `json:"total_known_identities"`
	PresentCount         int    `json:"present_count"`
}

// Neighbor is a nearest-reference search hit.
type Neighbor = facematch.Neighbor

// ValidateName canonicalizes an identity name and rejects empty or whitespace-only input.
func ValidateName(name string) (string, error) {
	c := facematch.CanonicalName(name)
	if c == "" {
		return "", fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if strings.ContainsRune(c, 0) {
		return "", fmt.Errorf("%w: name contains NUL", ErrInvalidInput)
	}
	return c, nil
}
