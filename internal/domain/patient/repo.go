package patient

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no patient exists for the given id.
var ErrNotFound = errors.New("patient not found")

// Repository is the persistence boundary for patient records. Records are
// append-only at the domain level: nothing ever deletes a patient.
type Repository interface {
	// GetByID returns the record for id, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Record, error)
	// List returns every stored record.
	List(ctx context.Context) ([]Record, error)
	// Save inserts or replaces the record keyed by its ID.
	Save(ctx context.Context, rec *Record) error
}
