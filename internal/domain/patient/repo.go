package patient

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows a patient listing.
type ListFilter struct {
	Location   string
	Discharged *bool
}

type Repository interface {
	Insert(ctx context.Context, p *Patient) error
	GetByRegistration(ctx context.Context, regno string) (*Patient, error)
	Exists(ctx context.Context, regno string) (bool, error)
	// ExistsOther reports whether another patient row (excluding excludeID)
	// already holds regno. Used by the rename collision check.
	ExistsOther(ctx context.Context, regno string, excludeID uuid.UUID) (bool, error)
	Update(ctx context.Context, p *Patient) error
	SetDischarged(ctx context.Context, regno string, discharged bool) (int64, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error)
}

// Propagator cascades a registration-number rename to one dependent relation.
// Each work-item and consultation repository implements it; the rename path
// runs every propagator inside the same transaction as the patient update.
type Propagator interface {
	ReassignRegistration(ctx context.Context, oldKey, newKey string) (int64, error)
}
