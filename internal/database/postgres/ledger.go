package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/attendance/internal/database"
)

// LedgerRepository provides PostgreSQL-backed attendance storage.
// The (name, day) unique constraint makes Record atomic without explicit locking.
type LedgerRepository struct {
	pool *Pool
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(pool *Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

const recordColumns = `name, to_char(day, 'YYYY-MM-DD'), to_char(recorded_time, 'HH24:MI:SS')`

func scanRecords(rows *sql.Rows) ([]database.AttendanceRecord, error) {
	defer rows.Close()

	records := []database.AttendanceRecord{}
	for rows.Next() {
		var rec database.AttendanceRecord
		if err := rows.Scan(&rec.Name, &rec.Date, &rec.Time); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}

// List returns records in insertion order, optionally filtered by date
func (r *LedgerRepository) List(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if date == "" {
		rows, err = r.pool.Query(ctx, "SELECT "+recordColumns+" FROM attendance ORDER BY id")
	} else {
		if _, err := database.ParseDate(date); err != nil {
			return nil, err
		}
		rows, err = r.pool.Query(ctx, "SELECT "+recordColumns+" FROM attendance WHERE day = $1::date ORDER BY id", date)
	}
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return scanRecords(rows)
}

// CountByDate returns the number of records for date
func (r *LedgerRepository) CountByDate(ctx context.Context, date string) (int, error) {
	if _, err := database.ParseDate(date); err != nil {
		return 0, err
	}
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM attendance WHERE day = $1::date", date).Scan(&count); err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return count, nil
}

// Record inserts attendance unless a row for (name, day) exists
func (r *LedgerRepository) Record(ctx context.Context, name string, when time.Time) (database.RecordOutcome, error) {
	name, err := database.ValidateName(name)
	if err != nil {
		return database.RecordOutcome{}, err
	}
	rec := database.NewRecord(name, when)

	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO attendance (name, day, recorded_time)
		VALUES ($1, $2::date, $3::time)
		ON CONFLICT (name, day) DO NOTHING
		RETURNING id
	`, rec.Name, rec.Date, rec.Time).Scan(&id)
	if err == nil {
		return database.RecordOutcome{Created: true, Record: rec}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return database.RecordOutcome{}, fmt.Errorf("%w: insert attendance: %v", database.ErrStorageWrite, err)
	}

	var existing database.AttendanceRecord
	err = r.pool.QueryRow(ctx,
		"SELECT "+recordColumns+" FROM attendance WHERE name = $1 AND day = $2::date",
		rec.Name, rec.Date,
	).Scan(&existing.Name, &existing.Date, &existing.Time)
	if err != nil {
		return database.RecordOutcome{}, fmt.Errorf("load existing attendance: %w", err)
	}
	return database.RecordOutcome{Created: false, Record: existing}, nil
}

// DeleteByDate removes every record for date
func (r *LedgerRepository) DeleteByDate(ctx context.Context, date string) (int, error) {
	if _, err := database.ParseDate(date); err != nil {
		return 0, err
	}
	return r.deleteWhere(ctx, "day = $1::date", date)
}

// DeleteByIdentity removes every record for name
func (r *LedgerRepository) DeleteByIdentity(ctx context.Context, name string) (int, error) {
	name, err := database.ValidateName(name)
	if err != nil {
		return 0, err
	}
	return r.deleteWhere(ctx, "name = $1", name)
}

func (r *LedgerRepository) deleteWhere(ctx context.Context, cond string, arg any) (int, error) {
	result, err := r.pool.Exec(ctx, "DELETE FROM attendance WHERE "+cond, arg)
	if err != nil {
		return 0, fmt.Errorf("%w: delete attendance: %v", database.ErrStorageWrite, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %v", database.ErrStorageWrite, err)
	}
	return int(n), nil
}

// Compile-time interface checks
var (
	_ database.RegistryWriter  = (*RegistryRepository)(nil)
	_ database.NearestSearcher = (*RegistryRepository)(nil)
	_ database.LedgerWriter    = (*LedgerRepository)(nil)
)
