// Package workflow orchestrates the scheduling pipeline: resolve the
// patient, find and book a slot, send confirmations, and schedule
// reminders, publishing lifecycle events along the way.
package workflow

import "time"

// Status values for a completed workflow run.
const (
	StatusScheduled = "scheduled"
	StatusNoSlots   = "no_slots"
)

// Lifecycle event names published on the event bus.
const (
	EventStarted              = "workflow_started"
	EventAppointmentConfirmed = "appointment_confirmed"
	EventRemindersScheduled   = "reminders_scheduled"
)

// Input is the intake payload for one scheduling run.
type Input struct {
	FullName         string
	DateOfBirth      time.Time
	DoctorPreference string
	Location         string
	Email            string
	Phone            string
	Insurance        string
}

// Result is the outcome of a workflow run. Start carries the booked
// time as a structured field so callers never parse it back out of the
// message text.
type Result struct {
	WorkflowID    string     `json:"workflow_id"`
	Status        string     `json:"status"`
	Message       string     `json:"message"`
	Start         *time.Time `json:"start,omitempty"`
	AppointmentID string     `json:"appointment_id,omitempty"`
}
