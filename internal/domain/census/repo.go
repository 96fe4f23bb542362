package census

import "context"

type Repository interface {
	PendingSummary(ctx context.Context) (*PendingSummary, error)
	PendingItems(ctx context.Context) ([]*PendingItem, error)
	PatientWorklist(ctx context.Context, regno string) ([]*PatientTask, error)
	LocationCensus(ctx context.Context) ([]*LocationCount, error)
}
