package consult

import (
	"context"

	"github.com/google/uuid"
)

// Repository is implemented once per consultation relation. The two relations
// share a shape; which table a repository speaks to is fixed at construction.
type Repository interface {
	Insert(ctx context.Context, con *Consultation) error
	ListByPatient(ctx context.Context, regno string, limit, offset int) ([]*Consultation, int, error)
	FindByKey(ctx context.Context, key NaturalKey) ([]*Consultation, error)
	// ExistsPair reports whether a (registration number, consult text) pair is
	// already recorded. Used by the archival duplicate pre-check.
	ExistsPair(ctx context.Context, regno, text string) (bool, error)
	UpdateText(ctx context.Context, id uuid.UUID, text string) (int64, error)
	UpdateTextAndStatus(ctx context.Context, id uuid.UUID, text, status string) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	ReassignRegistration(ctx context.Context, oldKey, newKey string) (int64, error)
}
