package consult

import (
	"time"

	"github.com/google/uuid"
)

// Consultation maps to a row of the consultations or oldconsultations table.
// Both relations carry a status column; only current rows move through the
// workflow.
type Consultation struct {
	ID                 uuid.UUID `json:"-"`
	RegistrationNumber string    `json:"registration_number"`
	Consult            string    `json:"consult"`
	DateAndTime        time.Time `json:"date_and_time"`
	Status             string    `json:"status"`
}

const (
	StatusUnsent    = "unsent"
	StatusSent      = "sent"
	StatusCollected = "collected"
)

var validStatuses = map[string]bool{
	StatusUnsent:    true,
	StatusSent:      true,
	StatusCollected: true,
}

// Scope selects the current or the archival relation.
type Scope string

const (
	ScopeCurrent Scope = "current"
	ScopeArchive Scope = "archive"
)

// NaturalKey identifies consultations by business fields: registration
// number, consult text, and timestamp. No category ambiguity here.
type NaturalKey struct {
	RegistrationNumber string    `json:"registration_number"`
	Consult            string    `json:"consult"`
	DateAndTime        time.Time `json:"date_and_time"`
}
