package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher delivers a reminder when it is due.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job)
}

// DispatchFunc adapts a function to the Dispatcher interface.
type DispatchFunc func(ctx context.Context, job Job)

func (f DispatchFunc) Dispatch(ctx context.Context, job Job) { f(ctx, job) }

// Scheduler holds pending reminder jobs and fires them at their FireAt
// times. A single background loop owns the timing; each due job is
// delivered on its own goroutine so one slow dispatch cannot delay the
// next. Jobs whose FireAt is already past fire immediately.
type Scheduler struct {
	store    JobStore
	dispatch Dispatcher
	now      func() time.Time
	logger   zerolog.Logger

	mu      sync.Mutex
	pending []Job

	wake chan struct{}
}

// NewScheduler creates a stopped Scheduler; call Run to start the
// dispatch loop. now is injectable for tests and defaults to time.Now
// when nil.
func NewScheduler(store JobStore, dispatch Dispatcher, now func() time.Time, logger zerolog.Logger) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		store:    store,
		dispatch: dispatch,
		now:      now,
		logger:   logger.With().Str("component", "reminder").Logger(),
		wake:     make(chan struct{}, 1),
	}
}

// Schedule persists the job and enqueues it for dispatch. It never
// blocks on delivery; the background loop picks the job up.
func (s *Scheduler) Schedule(ctx context.Context, job Job) error {
	if !job.Kind.Valid() {
		return fmt.Errorf("unknown reminder kind %q", job.Kind)
	}
	if err := s.store.Append(ctx, job); err != nil {
		return fmt.Errorf("persist reminder job: %w", err)
	}
	s.enqueue(job)
	return nil
}

// Rehydrate loads pending jobs from the store into the queue. Call once
// at startup before or after Run; overdue jobs fire immediately.
func (s *Scheduler) Rehydrate(ctx context.Context) (int, error) {
	jobs, err := s.store.LoadPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("load pending reminders: %w", err)
	}
	for _, job := range jobs {
		s.enqueue(job)
	}
	if len(jobs) > 0 {
		s.logger.Info().Int("count", len(jobs)).Msg("rehydrated pending reminders")
	}
	return len(jobs), nil
}

// Run executes the dispatch loop until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		next, ok := s.nextFireAt()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}

		wait := next.Sub(s.now())
		if wait > 0 {
			timer.Reset(wait)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return
			case <-s.wake:
				if !timer.Stop() {
					<-timer.C
				}
				continue
			case <-timer.C:
			}
		}

		for _, job := range s.takeDue() {
			go s.fire(ctx, job)
		}
	}
}

func (s *Scheduler) enqueue(job Job) {
	s.mu.Lock()
	s.pending = append(s.pending, job)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) nextFireAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return time.Time{}, false
	}
	next := s.pending[0].FireAt
	for _, job := range s.pending[1:] {
		if job.FireAt.Before(next) {
			next = job.FireAt
		}
	}
	return next, true
}

func (s *Scheduler) takeDue() []Job {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Job
	remaining := s.pending[:0]
	for _, job := range s.pending {
		if !job.FireAt.After(now) {
			due = append(due, job)
		} else {
			remaining = append(remaining, job)
		}
	}
	s.pending = remaining
	return due
}

func (s *Scheduler) fire(ctx context.Context, job Job) {
	s.dispatch.Dispatch(ctx, job)
	if err := s.store.MarkFired(ctx, job.ID); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("mark reminder fired")
	}
	s.logger.Info().
		Str("job_id", job.ID).
		Str("appointment_id", job.AppointmentID).
		Str("kind", string(job.Kind)).
		Msg("reminder fired")
}
