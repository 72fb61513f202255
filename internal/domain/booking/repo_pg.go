package booking

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgLedger is the Postgres-backed booking ledger, selected when
// DATABASE_URL is configured. Rows are insert-only.
type PgLedger struct {
	pool *pgxpool.Pool
}

// NewPgLedger creates the ledger and ensures its schema exists.
func NewPgLedger(ctx context.Context, pool *pgxpool.Pool) (*PgLedger, error) {
	const ddl = `
	CREATE TABLE IF NOT EXISTS bookings (
		appointment_id   TEXT PRIMARY KEY,
		patient_id       TEXT NOT NULL,
		doctor           TEXT NOT NULL,
		location         TEXT NOT NULL,
		start_time       TIMESTAMPTZ NOT NULL,
		duration_minutes INT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bookings_resource ON bookings (doctor, location)`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("ensure bookings table: %w", err)
	}
	return &PgLedger{pool: pool}, nil
}

func (l *PgLedger) ListByResource(ctx context.Context, doctor, location string) ([]Interval, error) {
	const q = `
	SELECT appointment_id, patient_id, doctor, location, start_time, duration_minutes
	FROM bookings WHERE doctor = $1 AND location = $2 ORDER BY start_time`
	return l.query(ctx, q, doctor, location)
}

func (l *PgLedger) List(ctx context.Context) ([]Interval, error) {
	const q = `
	SELECT appointment_id, patient_id, doctor, location, start_time, duration_minutes
	FROM bookings ORDER BY start_time`
	return l.query(ctx, q)
}

func (l *PgLedger) Book(ctx context.Context, iv Interval) error {
	const q = `
	INSERT INTO bookings (appointment_id, patient_id, doctor, location, start_time, duration_minutes)
	VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := l.pool.Exec(ctx, q, iv.AppointmentID, iv.PatientID, iv.Doctor, iv.Location, iv.Start, iv.DurationMinutes); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (l *PgLedger) query(ctx context.Context, q string, args ...any) ([]Interval, error) {
	rows, err := l.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var intervals []Interval
	for rows.Next() {
		var iv Interval
		if err := rows.Scan(&iv.AppointmentID, &iv.PatientID, &iv.Doctor, &iv.Location, &iv.Start, &iv.DurationMinutes); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		intervals = append(intervals, iv)
	}
	return intervals, rows.Err()
}
