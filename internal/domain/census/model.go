// Package census holds the read-only projections the screens render:
// pending work by category, per-patient worklists, and the per-location
// census. Nothing here mutates the store.
package census

import "time"

// PendingSummary counts current work that has not yet been collected.
type PendingSummary struct {
	Labs     int `json:"labs"`
	Imaging  int `json:"imaging"`
	Consults int `json:"consults"`
}

// PendingItem is one outstanding order, joined with the patient's name for
// display.
type PendingItem struct {
	RegistrationNumber string    `json:"registration_number"`
	PatientName        string    `json:"patient_name"`
	Category           string    `json:"category"`
	Type               string    `json:"type,omitempty"`
	Detail             string    `json:"detail"`
	Status             string    `json:"status"`
	DateAndTime        time.Time `json:"date_and_time"`
}

// PatientTask is one row of a patient's combined worklist (labs, imaging,
// and consultations together).
type PatientTask struct {
	Category    string    `json:"category"`
	Type        string    `json:"type,omitempty"`
	Detail      string    `json:"detail"`
	Status      string    `json:"status"`
	DateAndTime time.Time `json:"date_and_time"`
}

// LocationCount is the census line for one ward.
type LocationCount struct {
	Location   string `json:"location"`
	Admitted   int    `json:"admitted"`
	Discharged int    `json:"discharged"`
}

// Work categories as rendered by the projections.
const (
	CategoryLab     = "lab"
	CategoryImaging = "imaging"
	CategoryConsult = "consult"
)
