package jsonfile

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/attendance/internal/database"
)

// Ledger is a LedgerWriter backed by a JSON array of records in insertion order.
type Ledger struct {
	doc *document
	mu  sync.Mutex
}

// NewLedger returns a ledger stored at path. The file is created on first write.
func NewLedger(path string) *Ledger {
	return &Ledger{doc: newDocument(path, "ledger")}
}

// SetWriteFunc replaces the function used to persist the file.
func (l *Ledger) SetWriteFunc(fn WriteFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.doc.write = fn
}

// Path returns the file location.
func (l *Ledger) Path() string {
	return l.doc.path
}

func (l *Ledger) readRecords() ([]database.AttendanceRecord, error) {
	var records []database.AttendanceRecord
	found, err := l.doc.read(&records)
	if err != nil || !found {
		return nil, err
	}
	return records, nil
}

// load is the read path: unreadable means empty.
func (l *Ledger) load() []database.AttendanceRecord {
	records, err := l.readRecords()
	if err != nil {
		log.WithError(err).WithField("path", l.doc.path).Warn("Ledger unreadable, using empty ledger")
		return nil
	}
	return records
}

// List returns records for date, or all records when date is empty.
func (l *Ledger) List(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	l.mu.Lock()
	records := l.load()
	l.mu.Unlock()

	if date == "" {
		if records == nil {
			records = []database.AttendanceRecord{}
		}
		return records, nil
	}
	out := []database.AttendanceRecord{}
	for _, r := range records {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

// CountByDate returns the number of records for date.
func (l *Ledger) CountByDate(ctx context.Context, date string) (int, error) {
	records, err := l.List(ctx, date)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Record appends attendance for name unless it already exists for that day.
// The lock is held across load, check, append and persist.
func (l *Ledger) Record(ctx context.Context, name string, when time.Time) (database.RecordOutcome, error) {
	if err := ctx.Err(); err != nil {
		return database.RecordOutcome{}, err
	}
	name, err := database.ValidateName(name)
	if err != nil {
		return database.RecordOutcome{}, err
	}
	rec := database.NewRecord(name, when)

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readRecords()
	if err != nil {
		return database.RecordOutcome{}, err
	}
	for _, r := range records {
		if r.Name == rec.Name && r.Date == rec.Date {
			return database.RecordOutcome{Created: false, Record: r}, nil
		}
	}

	records = append(records, rec)
	if err := l.doc.persist(records); err != nil {
		return database.RecordOutcome{}, err
	}
	return database.RecordOutcome{Created: true, Record: rec}, nil
}

// DeleteByDate removes every record for date.
func (l *Ledger) DeleteByDate(ctx context.Context, date string) (int, error) {
	if _, err := database.ParseDate(date); err != nil {
		return 0, err
	}
	return l.deleteWhere(ctx, func(r database.AttendanceRecord) bool { return r.Date == date })
}

// DeleteByIdentity removes every record for name.
func (l *Ledger) DeleteByIdentity(ctx context.Context, name string) (int, error) {
	name, err := database.ValidateName(name)
	if err != nil {
		return 0, err
	}
	return l.deleteWhere(ctx, func(r database.AttendanceRecord) bool { return r.Name == name })
}

func (l *Ledger) deleteWhere(ctx context.Context, drop func(database.AttendanceRecord) bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readRecords()
	if err != nil {
		return 0, err
	}

	kept := make([]database.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if !drop(r) {
			kept = append(kept, r)
		}
	}
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := l.doc.persist(kept); err != nil {
		return 0, err
	}
	return removed, nil
}
