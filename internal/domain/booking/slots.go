package booking

import "time"

// DefaultStepMinutes is the scan granularity: candidate starts are
// aligned to this interval regardless of appointment duration.
const DefaultStepMinutes = 30

// FindAvailableSlots scans [windowStart, windowEnd) in stepMinutes
// increments and returns up to maxResults candidate start times, earliest
// first, where an appointment of durationMinutes fits without colliding
// with any busy interval. A candidate is considered only while the full
// appointment would end by windowEnd. An empty result means the window is
// saturated; it is not an error.
func FindAvailableSlots(busy []Interval, durationMinutes, stepMinutes int, windowStart, windowEnd time.Time, maxResults int) []time.Time {
	if durationMinutes <= 0 || stepMinutes <= 0 || maxResults <= 0 {
		return nil
	}

	duration := time.Duration(durationMinutes) * time.Minute
	step := time.Duration(stepMinutes) * time.Minute

	var slots []time.Time
	for candidate := windowStart; !candidate.Add(duration).After(windowEnd); candidate = candidate.Add(step) {
		if conflicts(busy, candidate, duration) {
			continue
		}
		slots = append(slots, candidate)
		if len(slots) >= maxResults {
			break
		}
	}
	return slots
}

func conflicts(busy []Interval, start time.Time, duration time.Duration) bool {
	for _, iv := range busy {
		if iv.Overlaps(start, duration) {
			return true
		}
	}
	return false
}
