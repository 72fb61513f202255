// Package patient implements patient identity: deterministic patient ids
// derived from demographics, and an idempotent resolve-or-create service
// over a pluggable record store.
package patient

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
)

// DateLayout is the canonical on-disk and wire format for dates of birth.
const DateLayout = "2006-01-02"

// Record is a stored patient identity.
type Record struct {
	ID          string    `json:"patient_id"`
	FullName    string    `json:"full_name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
}

// HasEmail reports whether the record carries an email address.
func (r *Record) HasEmail() bool { return r.Email != "" }

// HasPhone reports whether the record carries a phone number.
func (r *Record) HasPhone() bool { return r.Phone != "" }

// IdentityKey derives the deterministic patient id for a name and date of
// birth: the first 12 hex characters of SHA-1 over the normalized name
// (lowercased, surrounding whitespace stripped) joined with the ISO date
// by a "|" separator. The same person always maps to the same id.
func IdentityKey(fullName string, dateOfBirth time.Time) string {
	normalized := strings.ToLower(strings.TrimSpace(fullName))
	seed := normalized + "|" + dateOfBirth.Format(DateLayout)
	sum := sha1.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])[:12]
}
