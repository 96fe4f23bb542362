package workitem

import (
	"time"

	"github.com/google/uuid"

	"github.com/wardbook/wardbook/pkg/apperr"
)

// PayloadKind is the closed set of work-item categories. A row carries
// exactly one payload kind; queries only ever constrain the columns of the
// kind in question.
type PayloadKind string

const (
	KindLab     PayloadKind = "lab"
	KindImaging PayloadKind = "imaging"
)

var validLabTypes = map[string]bool{
	"blood":         true,
	"urine":         true,
	"miscellaneous": true,
}

var validImagingTypes = map[string]bool{
	"X-RAY": true,
	"CT":    true,
	"MRI":   true,
	"USG":   true,
}

// Payload is the category-specific half of a work item.
type Payload struct {
	Kind    PayloadKind `json:"kind"`
	Type    string      `json:"type"`
	Subtype string      `json:"subtype"`
}

func (p Payload) Validate() error {
	switch p.Kind {
	case KindLab:
		if !validLabTypes[p.Type] {
			return apperr.Validationf("type", "unknown lab type %q", p.Type)
		}
	case KindImaging:
		if !validImagingTypes[p.Type] {
			return apperr.Validationf("type", "unknown imaging type %q", p.Type)
		}
	default:
		return apperr.Validationf("kind", "must be lab or imaging")
	}
	if p.Subtype == "" {
		return apperr.Validationf("subtype", "required")
	}
	return nil
}

// Work item statuses. The state machine is unsent -> sent -> collected, but
// transitions are not enforced: any valid status may be written at any time.
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

// WorkItem maps to a row of the tasks or oldlabs table. Status is empty on
// archival rows, which carry no workflow column.
type WorkItem struct {
	ID                 uuid.UUID `json:"-"`
	RegistrationNumber string    `json:"registration_number"`
	Payload            Payload   `json:"payload"`
	DateAndTime        time.Time `json:"date_and_time"`
	Status             string    `json:"status,omitempty"`
}

// Scope selects the current or the archival relation.
type Scope string

const (
	ScopeCurrent Scope = "current"
	ScopeArchive Scope = "archive"
)

// NaturalKey identifies work items by business fields. It is used for the
// initial lookup only; mutations then act on the internal row ids, so a key
// never matches across payload kinds.
type NaturalKey struct {
	RegistrationNumber string      `json:"registration_number"`
	DateAndTime        time.Time   `json:"date_and_time"`
	Kind               PayloadKind `json:"kind"`
	Type               string      `json:"type"`
	Subtype            string      `json:"subtype"`
}
