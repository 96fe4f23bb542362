package workitem

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the behavior shared by the tasks and oldlabs relations.
// There is one implementation per relation; no table names cross the API.
type Repository interface {
	Insert(ctx context.Context, item *WorkItem) error
	ListByPatient(ctx context.Context, regno string, limit, offset int) ([]*WorkItem, int, error)
	// FindForEdit matches on registration number, timestamp, and payload
	// kind+type; the subtype is what an edit replaces.
	FindForEdit(ctx context.Context, key NaturalKey) ([]*WorkItem, error)
	// FindExact additionally matches the subtype.
	FindExact(ctx context.Context, key NaturalKey) ([]*WorkItem, error)
	UpdateSubtype(ctx context.Context, id uuid.UUID, kind PayloadKind, subtype string) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	ReassignRegistration(ctx context.Context, oldKey, newKey string) (int64, error)
}

// StatusRepository adds the workflow column, present only on the current
// relation. Archival rows have no status to read or write.
type StatusRepository interface {
	Repository
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (int64, error)
	UpdateSubtypeAndStatus(ctx context.Context, id uuid.UUID, kind PayloadKind, subtype, status string) (int64, error)
}
