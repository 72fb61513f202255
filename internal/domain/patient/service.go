package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebook/carebook/internal/platform/lock"
)

// ErrInvalidInput is returned when required demographics are missing.
var ErrInvalidInput = errors.New("full name and date of birth are required")

// Service resolves patient identities idempotently.
type Service struct {
	repo   Repository
	keysMu *lock.KeyedMutex
	logger zerolog.Logger
}

// NewService creates a Service over the given repository.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		keysMu: lock.NewKeyedMutex(),
		logger: logger.With().Str("component", "patient").Logger(),
	}
}

// ResolveOrCreate returns the patient record for the given demographics,
// creating it when none exists. The returned existed flag reports whether
// the record was already present. Calls that contend on the same identity
// key are serialized, so concurrent requests for the same person resolve
// to a single record.
func (s *Service) ResolveOrCreate(ctx context.Context, fullName string, dateOfBirth time.Time, email, phone string) (*Record, bool, error) {
	if strings.TrimSpace(fullName) == "" || dateOfBirth.IsZero() {
		return nil, false, ErrInvalidInput
	}

	id := IdentityKey(fullName, dateOfBirth)

	s.keysMu.Lock(id)
	defer s.keysMu.Unlock(id)

	existing, err := s.repo.GetByID(ctx, id)
	if err == nil {
		s.logger.Debug().Str("patient_id", id).Msg("patient resolved")
		return existing, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("resolve patient: %w", err)
	}

	rec := &Record{
		ID:          id,
		FullName:    fullName,
		DateOfBirth: dateOfBirth,
		Email:       email,
		Phone:       phone,
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		return nil, false, fmt.Errorf("create patient: %w", err)
	}

	s.logger.Info().Str("patient_id", id).Msg("patient created")
	return rec, false, nil
}
