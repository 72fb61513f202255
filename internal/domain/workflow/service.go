package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebook/carebook/internal/domain/booking"
	"github.com/carebook/carebook/internal/domain/patient"
	"github.com/carebook/carebook/internal/domain/reminder"
	"github.com/carebook/carebook/internal/platform/eventbus"
	"github.com/carebook/carebook/internal/platform/notification"
)

// Appointment durations by patient history.
const (
	newPatientMinutes       = 60
	returningPatientMinutes = 30
)

// intakeFormsURL is the link sent in the intake-forms follow-up.
const intakeFormsURL = "https://example.com/forms/intake"

// insurancePlaceholder is recorded when intake carries no insurance.
const insurancePlaceholder = "Self-Pay (unverified)"

// Options configures the orchestrator.
type Options struct {
	DefaultDoctor   string
	DefaultLocation string
	WindowDays      int
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Service runs the scheduling workflow end to end.
type Service struct {
	patients  *patient.Service
	bookings  *booking.Service
	reminders *reminder.Scheduler
	notifier  *notification.Manager
	bus       *eventbus.Bus
	opts      Options
	logger    zerolog.Logger
}

// NewService wires the orchestrator over its collaborators.
func NewService(
	patients *patient.Service,
	bookings *booking.Service,
	reminders *reminder.Scheduler,
	notifier *notification.Manager,
	bus *eventbus.Bus,
	opts Options,
	logger zerolog.Logger,
) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		patients:  patients,
		bookings:  bookings,
		reminders: reminders,
		notifier:  notifier,
		bus:       bus,
		opts:      opts,
		logger:    logger.With().Str("component", "workflow").Logger(),
	}
}

// Start executes one scheduling run. A saturated booking window yields a
// StatusNoSlots result, not an error; errors are reserved for invalid
// input and infrastructure failures.
func (s *Service) Start(ctx context.Context, in Input) (*Result, error) {
	workflowID := uuid.New().String()
	log := s.logger.With().Str("workflow_id", workflowID).Logger()

	s.bus.Publish(EventStarted, map[string]interface{}{
		"workflow_id": workflowID,
		"patient":     in.FullName,
	})

	rec, existed, err := s.patients.ResolveOrCreate(ctx, in.FullName, in.DateOfBirth, in.Email, in.Phone)
	if err != nil {
		return nil, err
	}

	insurance := in.Insurance
	if insurance == "" {
		insurance = insurancePlaceholder
	}

	duration := newPatientMinutes
	if existed {
		duration = returningPatientMinutes
	}

	doctor := in.DoctorPreference
	if doctor == "" {
		doctor = s.opts.DefaultDoctor
	}
	location := in.Location
	if location == "" {
		location = s.opts.DefaultLocation
	}

	windowStart, windowEnd := s.bookingWindow()

	iv, err := s.bookings.BookFirstAvailable(ctx, rec.ID, doctor, location, duration, windowStart, windowEnd)
	if err != nil {
		if errors.Is(err, booking.ErrNoAvailability) {
			log.Info().Str("doctor", doctor).Str("location", location).Msg("no availability in window")
			return &Result{
				WorkflowID: workflowID,
				Status:     StatusNoSlots,
				Message:    fmt.Sprintf("No available slots with Dr. %s at %s in the next %d days.", doctor, location, s.opts.WindowDays),
			}, nil
		}
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	s.bus.Publish(EventAppointmentConfirmed, map[string]interface{}{
		"workflow_id":      workflowID,
		"appointment_id":   iv.AppointmentID,
		"patient_id":       rec.ID,
		"start":            iv.Start.Format(time.RFC3339),
		"duration_minutes": iv.DurationMinutes,
		"doctor":           doctor,
		"location":         location,
		"insurance":        insurance,
	})

	s.sendConfirmations(ctx, log, rec, iv, doctor, location)
	s.scheduleReminders(ctx, log, workflowID, rec.ID, iv)

	start := iv.Start
	return &Result{
		WorkflowID:    workflowID,
		Status:        StatusScheduled,
		Message:       fmt.Sprintf("Appointment confirmed for %s with Dr. %s at %s.", start.Format(time.RFC3339), doctor, location),
		Start:         &start,
		AppointmentID: iv.AppointmentID,
	}, nil
}

// bookingWindow spans tomorrow 09:00 local through now plus the
// configured number of days.
func (s *Service) bookingWindow() (time.Time, time.Time) {
	now := s.opts.Now()
	tomorrow := now.AddDate(0, 0, 1)
	start := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 9, 0, 0, 0, now.Location())
	end := now.AddDate(0, 0, s.opts.WindowDays)
	return start, end
}

// sendConfirmations delivers the confirmation (email preferred, SMS
// fallback) and the intake-forms follow-up when an email is on file.
// Delivery failures are logged; they never fail the workflow.
func (s *Service) sendConfirmations(ctx context.Context, log zerolog.Logger, rec *patient.Record, iv *booking.Interval, doctor, location string) {
	data := map[string]string{
		"patient_name": rec.FullName,
		"doctor":       doctor,
		"location":     location,
		"start":        iv.Start.Format(notification.TimeLayoutFull),
	}

	switch {
	case rec.HasEmail():
		if _, err := s.notifier.SendFromTemplate(ctx, notification.TemplateConfirmation, data, notification.ChannelEmail, rec.Email); err != nil {
			log.Error().Err(err).Msg("confirmation email failed")
		}
		if _, err := s.notifier.SendFromTemplate(ctx, notification.TemplateIntakeForms, map[string]string{"forms_url": intakeFormsURL}, notification.ChannelEmail, rec.Email); err != nil {
			log.Error().Err(err).Msg("intake forms email failed")
		}
	case rec.HasPhone():
		if _, err := s.notifier.SendFromTemplate(ctx, notification.TemplateConfirmation, data, notification.ChannelSMS, rec.Phone); err != nil {
			log.Error().Err(err).Msg("confirmation sms failed")
		}
	default:
		log.Debug().Str("patient_id", rec.ID).Msg("no contact details, confirmation skipped")
	}
}

// scheduleReminders enqueues the three reminder jobs and publishes the
// reminders_scheduled event. A persistence failure on one job is logged
// and the rest still schedule.
func (s *Service) scheduleReminders(ctx context.Context, log zerolog.Logger, workflowID, patientID string, iv *booking.Interval) {
	jobs := reminder.JobsForAppointment(iv.AppointmentID, patientID, iv.Start)
	scheduled := 0
	for _, job := range jobs {
		if err := s.reminders.Schedule(ctx, job); err != nil {
			log.Error().Err(err).Str("kind", string(job.Kind)).Msg("schedule reminder failed")
			continue
		}
		scheduled++
	}

	s.bus.Publish(EventRemindersScheduled, map[string]interface{}{
		"workflow_id":    workflowID,
		"appointment_id": iv.AppointmentID,
		"start":          iv.Start.Format(time.RFC3339),
		"count":          scheduled,
	})
}
