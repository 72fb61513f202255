package booking

import "context"

// Ledger is the persistence boundary for booked intervals. The ledger is
// append-only: intervals are never updated or removed. Book performs no
// overlap validation; callers are trusted to have checked availability
// (the service layer holds the per-resource lock across find and book).
type Ledger interface {
	// ListByResource returns every interval booked for the doctor at the
	// location.
	ListByResource(ctx context.Context, doctor, location string) ([]Interval, error)
	// List returns every interval in the ledger.
	List(ctx context.Context) ([]Interval, error)
	// Book appends an interval to the ledger.
	Book(ctx context.Context, iv Interval) error
}
