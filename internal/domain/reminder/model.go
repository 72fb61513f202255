// Package reminder implements durable appointment reminders: three
// fixed-offset jobs per appointment, persisted to an append-only job
// log and fired by a single background dispatcher.
package reminder

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies which of the three reminders a job represents.
type Kind string

const (
	KindThreeDay Kind = "three_day"
	KindOneDay   Kind = "one_day"
	KindTwoHour  Kind = "two_hour"
)

// Offset returns how long before the appointment start the reminder
// fires.
func (k Kind) Offset() time.Duration {
	switch k {
	case KindThreeDay:
		return 72 * time.Hour
	case KindOneDay:
		return 24 * time.Hour
	case KindTwoHour:
		return 2 * time.Hour
	}
	return 0
}

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindThreeDay, KindOneDay, KindTwoHour:
		return true
	}
	return false
}

// Job is one scheduled reminder.
type Job struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	Kind          Kind      `json:"kind"`
	Start         time.Time `json:"start"`
	FireAt        time.Time `json:"fire_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// JobsForAppointment builds the three reminder jobs for an appointment
// starting at start. FireAt may already be in the past for near-term
// appointments; such jobs fire immediately once scheduled.
func JobsForAppointment(appointmentID, patientID string, start time.Time) []Job {
	now := time.Now().UTC()
	kinds := []Kind{KindThreeDay, KindOneDay, KindTwoHour}
	jobs := make([]Job, 0, len(kinds))
	for _, k := range kinds {
		jobs = append(jobs, Job{
			ID:            uuid.New().String(),
			AppointmentID: appointmentID,
			PatientID:     patientID,
			Kind:          k,
			Start:         start,
			FireAt:        start.Add(-k.Offset()),
			CreatedAt:     now,
		})
	}
	return jobs
}
