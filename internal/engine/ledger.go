package engine

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/attendance/internal/database"
)

// DeleteAttendanceForDate removes every record for date (YYYY-MM-DD).
func (e *Engine) DeleteAttendanceForDate(ctx context.Context, date string) (int, error) {
	date, err := database.ParseDate(date)
	if err != nil {
		return 0, err
	}
	n, err := e.ledger.DeleteByDate(ctx, date)
	if err != nil {
		e.metrics.IncrementStorageError("delete_date")
		return 0, fmt.Errorf("deleting attendance for %s: %w", date, err)
	}
	log.WithFields(log.Fields{"date": date, "removed": n}).Info("Attendance deleted for date")
	return n, nil
}

// DeleteAttendanceForIdentity removes every record for name. This is never done
// implicitly when an identity is deleted.
func (e *Engine) DeleteAttendanceForIdentity(ctx context.Context, name string) (int, error) {
	name, err := database.ValidateName(name)
	if err != nil {
		return 0, err
	}
	n, err := e.ledger.DeleteByIdentity(ctx, name)
	if err != nil {
		e.metrics.IncrementStorageError("delete_identity")
		return 0, fmt.Errorf("deleting attendance for %q: %w", name, err)
	}
	log.WithFields(log.Fields{"name": name, "removed": n}).Info("Attendance deleted for identity")
	return n, nil
}

// ListAttendance returns records for date, or all records when date is empty.
func (e *Engine) ListAttendance(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	if date != "" {
		if _, err := database.ParseDate(date); err != nil {
			return nil, err
		}
	}
	return e.ledger.List(ctx, date)
}

// GetDashboardSummary aggregates the calendar day of now in the engine location.
func (e *Engine) GetDashboardSummary(ctx context.Context, now time.Time) (database.Summary, error) {
	return e.SummaryForDate(ctx, database.DateOf(now.In(e.loc)))
}

// SummaryForDate aggregates an explicit date.
func (e *Engine) SummaryForDate(ctx context.Context, date string) (database.Summary, error) {
	date, err := database.ParseDate(date)
	if err != nil {
		return database.Summary{}, err
	}
	present, err := e.ledger.CountByDate(ctx, date)
	if err != nil {
		return database.Summary{}, fmt.Errorf("counting attendance: %w", err)
	}
	return database.Summary{
		Date:                 date,
		TotalKnownIdentities: e.Snapshot().Count(),
		PresentCount:         present,
	}, nil
}
