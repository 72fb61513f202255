package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebook/carebook/internal/platform/lock"
)

// ErrNoAvailability is returned by BookFirstAvailable when the window
// holds no free slot. Callers treat this as a normal outcome, not a
// failure.
var ErrNoAvailability = errors.New("no availability in booking window")

// Service wraps the ledger with availability search and books under a
// per-resource lock so concurrent requests for the same doctor and
// location cannot claim the same slot.
type Service struct {
	ledger      Ledger
	resourceMu  *lock.KeyedMutex
	stepMinutes int
	maxResults  int
	logger      zerolog.Logger
}

// NewService creates a booking Service. stepMinutes and maxResults bound
// the availability scan.
func NewService(ledger Ledger, stepMinutes, maxResults int, logger zerolog.Logger) *Service {
	return &Service{
		ledger:      ledger,
		resourceMu:  lock.NewKeyedMutex(),
		stepMinutes: stepMinutes,
		maxResults:  maxResults,
		logger:      logger.With().Str("component", "booking").Logger(),
	}
}

// Availability returns up to the configured number of open start times
// for the doctor at the location within [windowStart, windowEnd).
func (s *Service) Availability(ctx context.Context, doctor, location string, durationMinutes int, windowStart, windowEnd time.Time) ([]time.Time, error) {
	busy, err := s.ledger.ListByResource(ctx, doctor, location)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return FindAvailableSlots(busy, durationMinutes, s.stepMinutes, windowStart, windowEnd, s.maxResults), nil
}

// BookFirstAvailable finds the earliest open slot and appends a booking
// for it, holding the resource lock across the find and the write.
// Returns ErrNoAvailability when the window is saturated.
func (s *Service) BookFirstAvailable(ctx context.Context, patientID, doctor, location string, durationMinutes int, windowStart, windowEnd time.Time) (*Interval, error) {
	key := ResourceKey(doctor, location)
	s.resourceMu.Lock(key)
	defer s.resourceMu.Unlock(key)

	slots, err := s.Availability(ctx, doctor, location, durationMinutes, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, ErrNoAvailability
	}

	iv := Interval{
		AppointmentID:   uuid.New().String()[:8],
		PatientID:       patientID,
		Doctor:          doctor,
		Location:        location,
		Start:           slots[0],
		DurationMinutes: durationMinutes,
	}
	if err := s.ledger.Book(ctx, iv); err != nil {
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	s.logger.Info().
		Str("appointment_id", iv.AppointmentID).
		Str("patient_id", patientID).
		Str("doctor", doctor).
		Str("location", location).
		Time("start", iv.Start).
		Int("duration_minutes", durationMinutes).
		Msg("appointment booked")
	return &iv, nil
}
