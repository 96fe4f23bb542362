package census

import (
	"context"

	"github.com/wardbook/wardbook/pkg/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ready() error {
	if s == nil || s.repo == nil {
		return apperr.ErrNotInitialized
	}
	return nil
}

func (s *Service) PendingSummary(ctx context.Context) (*PendingSummary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.repo.PendingSummary(ctx)
}

func (s *Service) PendingItems(ctx context.Context) ([]*PendingItem, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.repo.PendingItems(ctx)
}

func (s *Service) PatientWorklist(ctx context.Context, regno string) ([]*PatientTask, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if regno == "" {
		return nil, &apperr.ValidationError{Field: "registration_number", Reason: "must not be empty"}
	}
	return s.repo.PatientWorklist(ctx, regno)
}

func (s *Service) LocationCensus(ctx context.Context) ([]*LocationCount, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.repo.LocationCensus(ctx)
}
