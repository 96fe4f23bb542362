package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. Identity is the user-assigned
// registration number; the uuid id is internal and never part of the
// caller-facing contract.
type Patient struct {
	ID                   uuid.UUID `json:"-"`
	RegistrationNumber   string    `json:"registration_number"`
	PatientName          string    `json:"patient_name"`
	Age                  int       `json:"age"`
	Gender               string    `json:"gender"`
	Location             string    `json:"location"`
	BedNumber            *int      `json:"bed_number,omitempty"`
	ChiefComplaints      string    `json:"chief_complaints"`
	ProvisionalDiagnosis string    `json:"provisional_diagnosis"`
	MiscNotes            string    `json:"misc_notes"`
	Contact              string    `json:"contact"`
	RegDate              time.Time `json:"reg_date"`
	IsDischarged         bool      `json:"is_discharged"`
}

var validGenders = map[string]bool{
	"Male":   true,
	"Female": true,
	"Other":  true,
}

var validLocations = map[string]bool{
	"Emergency":   true,
	"ICU":         true,
	"HDU":         true,
	"Ward Male":   true,
	"Ward Female": true,
	"Other":       true,
}

// Locations returns the fixed set of ward names, in display order.
func Locations() []string {
	return []string{"Emergency", "ICU", "HDU", "Ward Male", "Ward Female", "Other"}
}
