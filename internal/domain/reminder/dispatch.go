package reminder

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/carebook/carebook/internal/domain/patient"
	"github.com/carebook/carebook/internal/platform/notification"
)

// NotificationDispatcher delivers reminders through the notification
// manager. The channel is chosen at fire time from the patient's current
// contact details: email when present, else SMS, else the reminder is
// skipped silently.
type NotificationDispatcher struct {
	patients patient.Repository
	notifier *notification.Manager
	logger   zerolog.Logger
}

// NewNotificationDispatcher creates a NotificationDispatcher.
func NewNotificationDispatcher(patients patient.Repository, notifier *notification.Manager, logger zerolog.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{
		patients: patients,
		notifier: notifier,
		logger:   logger.With().Str("component", "reminder-dispatch").Logger(),
	}
}

// Dispatch renders and sends the reminder for job. Delivery failures are
// logged, not returned; a reminder never fails the schedule.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, job Job) {
	rec, err := d.patients.GetByID(ctx, job.PatientID)
	if err != nil {
		d.logger.Error().Err(err).Str("patient_id", job.PatientID).Msg("reminder patient lookup failed")
		return
	}

	var channel notification.Channel
	var recipient string
	switch {
	case rec.HasEmail():
		channel = notification.ChannelEmail
		recipient = rec.Email
	case rec.HasPhone():
		channel = notification.ChannelSMS
		recipient = rec.Phone
	default:
		d.logger.Debug().Str("patient_id", job.PatientID).Msg("no contact details, reminder skipped")
		return
	}

	templateID, data := templateFor(job)
	if _, err := d.notifier.SendFromTemplate(ctx, templateID, data, channel, recipient); err != nil {
		d.logger.Error().Err(err).
			Str("job_id", job.ID).
			Str("channel", string(channel)).
			Msg("reminder delivery failed")
	}
}

func templateFor(job Job) (string, map[string]string) {
	switch job.Kind {
	case KindThreeDay:
		return notification.TemplateReminderThreeDay, map[string]string{
			"start_day": job.Start.Format(notification.TimeLayoutDay),
		}
	case KindOneDay:
		return notification.TemplateReminderOneDay, map[string]string{
			"start_short": job.Start.Format(notification.TimeLayoutShort),
		}
	default:
		return notification.TemplateReminderTwoHour, map[string]string{
			"start_clock": job.Start.Format(notification.TimeLayoutClock),
		}
	}
}
