// Package booking implements the appointment ledger and slot search:
// an append-only store of booked intervals per (doctor, location)
// resource, a fixed-granularity availability scan, and a service that
// serializes find-and-book per resource.
package booking

import "time"

// Interval is one booked appointment on a (doctor, location) resource.
type Interval struct {
	AppointmentID   string    `json:"appointment_id"`
	PatientID       string    `json:"patient_id"`
	Doctor          string    `json:"doctor"`
	Location        string    `json:"location"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
}

// End returns the exclusive end of the interval.
func (iv Interval) End() time.Time {
	return iv.Start.Add(time.Duration(iv.DurationMinutes) * time.Minute)
}

// ResourceKey identifies the calendar an interval occupies.
func (iv Interval) ResourceKey() string {
	return ResourceKey(iv.Doctor, iv.Location)
}

// ResourceKey builds the ledger key for a doctor at a location.
func ResourceKey(doctor, location string) string {
	return doctor + "@" + location
}

// Overlaps reports whether a candidate slot [start, start+duration)
// collides with the interval. Intervals are half-open, so a slot that
// begins exactly when the interval ends (or ends exactly when it begins)
// does not overlap.
func (iv Interval) Overlaps(start time.Time, duration time.Duration) bool {
	slotEnd := start.Add(duration)
	if !slotEnd.After(iv.Start) {
		return false
	}
	if !start.Before(iv.End()) {
		return false
	}
	return true
}
