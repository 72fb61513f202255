package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository is the Postgres-backed patient store, selected when
// DATABASE_URL is configured.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates the repository and ensures its schema exists.
func NewPgRepository(ctx context.Context, pool *pgxpool.Pool) (*PgRepository, error) {
	const ddl = `
	CREATE TABLE IF NOT EXISTS patients (
		patient_id    TEXT PRIMARY KEY,
		full_name     TEXT NOT NULL,
		date_of_birth DATE NOT NULL,
		email         TEXT NOT NULL DEFAULT '',
		phone         TEXT NOT NULL DEFAULT ''
	)`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("ensure patients table: %w", err)
	}
	return &PgRepository{pool: pool}, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	const q = `
	SELECT patient_id, full_name, date_of_birth, email, phone
	FROM patients WHERE patient_id = $1`

	var rec Record
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&rec.ID, &rec.FullName, &rec.DateOfBirth, &rec.Email, &rec.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query patient: %w", err)
	}
	return &rec, nil
}

func (r *PgRepository) List(ctx context.Context) ([]Record, error) {
	const q = `
	SELECT patient_id, full_name, date_of_birth, email, phone
	FROM patients ORDER BY patient_id`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.FullName, &rec.DateOfBirth, &rec.Email, &rec.Phone); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *PgRepository) Save(ctx context.Context, rec *Record) error {
	const q = `
	INSERT INTO patients (patient_id, full_name, date_of_birth, email, phone)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (patient_id) DO UPDATE
	SET full_name = EXCLUDED.full_name,
	    date_of_birth = EXCLUDED.date_of_birth,
	    email = EXCLUDED.email,
	    phone = EXCLUDED.phone`

	if _, err := r.pool.Exec(ctx, q, rec.ID, rec.FullName, rec.DateOfBirth, rec.Email, rec.Phone); err != nil {
		return fmt.Errorf("save patient: %w", err)
	}
	return nil
}
