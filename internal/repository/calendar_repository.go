package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CalendarRepo manages provider_blocked_dates, the opt-out availability
// calendar: every date is free unless a row blocks it. Days are stored as
// DATE columns in UTC.
type CalendarRepo struct {
	db *sql.DB
}

// NewCalendarRepo returns a new CalendarRepo bound to the given database.
func NewCalendarRepo(db *sql.DB) *CalendarRepo { return &CalendarRepo{db: db} }

const dateFormat = "2006-01-02"

// Block marks a single day as blocked for a provider. Blocking an already
// blocked day is a no-op.
func (r *CalendarRepo) Block(ctx context.Context, providerID uint64, day time.Time) error {
	const q = `INSERT INTO provider_blocked_dates (provider_id, day) VALUES (?, ?)
	           ON DUPLICATE KEY UPDATE day = day`
	_, err := r.db.ExecContext(ctx, q, providerID, day.UTC().Format(dateFormat))
	if err != nil {
		return fmt.Errorf("block date: %w", err)
	}
	return nil
}

// Unblock removes a blocked day. Unblocking a free day is a no-op.
func (r *CalendarRepo) Unblock(ctx context.Context, providerID uint64, day time.Time) error {
	const q = `DELETE FROM provider_blocked_dates WHERE provider_id = ? AND day = ?`
	_, err := r.db.ExecContext(ctx, q, providerID, day.UTC().Format(dateFormat))
	if err != nil {
		return fmt.Errorf("unblock date: %w", err)
	}
	return nil
}

// List returns all blocked days for a provider ordered ascending.
func (r *CalendarRepo) List(ctx context.Context, providerID uint64) ([]time.Time, error) {
	const q = `SELECT day FROM provider_blocked_dates WHERE provider_id = ? ORDER BY day`
	rows, err := r.db.QueryContext(ctx, q, providerID)
	if err != nil {
		return nil, fmt.Errorf("list blocked dates: %w", err)
	}
	defer rows.Close()
	days := make([]time.Time, 0)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d.UTC())
	}
	return days, rows.Err()
}

// BlockedCount returns the number of blocked days inside the inclusive
// [from, to] day range for a provider.
func (r *CalendarRepo) BlockedCount(ctx context.Context, providerID uint64, from, to time.Time) (int, error) {
	return blockedCount(ctx, r.db, providerID, from, to)
}

func blockedCount(ctx context.Context, q dbtx, providerID uint64, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM provider_blocked_dates
	               WHERE provider_id = ? AND day >= ? AND day <= ?`
	var n int
	err := q.QueryRowContext(ctx, query, providerID,
		from.UTC().Format(dateFormat), to.UTC().Format(dateFormat)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count blocked dates: %w", err)
	}
	return n, nil
}
