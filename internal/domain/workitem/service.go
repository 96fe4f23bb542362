package workitem

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wardbook/wardbook/pkg/apperr"
)

// PatientDirectory is the slice of the patient registry the ledger needs:
// whether a registration number names a known patient.
type PatientDirectory interface {
	Exists(ctx context.Context, regno string) (bool, error)
}

type Service struct {
	current  StatusRepository
	archive  Repository
	patients PatientDirectory
}

func NewService(current StatusRepository, archive Repository, patients PatientDirectory) *Service {
	return &Service{current: current, archive: archive, patients: patients}
}

func (s *Service) ready() error {
	if s.current == nil || s.archive == nil || s.patients == nil {
		return apperr.ErrNotInitialized
	}
	return nil
}

func (s *Service) repo(scope Scope) (Repository, error) {
	switch scope {
	case ScopeCurrent:
		return s.current, nil
	case ScopeArchive:
		return s.archive, nil
	}
	return nil, apperr.Validationf("scope", "must be current or archive")
}

func (s *Service) checkPatient(ctx context.Context, regno string) error {
	if regno == "" {
		return apperr.Validationf("registration_number", "required")
	}
	exists, err := s.patients.Exists(ctx, regno)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.Validationf("registration_number", "no patient %q", regno)
	}
	return nil
}

// AddItem records a lab or imaging order for a patient. Repeated identical
// orders are permitted; a patient may need the same test twice. Current items
// start unsent; archival items carry no status.
func (s *Service) AddItem(ctx context.Context, scope Scope, regno string, payload Payload) (*WorkItem, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	repo, err := s.repo(scope)
	if err != nil {
		return nil, err
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkPatient(ctx, regno); err != nil {
		return nil, err
	}

	item := &WorkItem{
		ID:                 uuid.New(),
		RegistrationNumber: regno,
		Payload:            payload,
		DateAndTime:        time.Now().UTC(),
	}
	if scope == ScopeCurrent {
		item.Status = StatusUnsent
	}
	if err := repo.Insert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) ListByPatient(ctx context.Context, scope Scope, regno string, limit, offset int) ([]*WorkItem, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	repo, err := s.repo(scope)
	if err != nil {
		return nil, 0, err
	}
	return repo.ListByPatient(ctx, regno, limit, offset)
}

// AdvanceStatus writes newStatus to the current-relation rows matching the
// full natural key. Transitions are not constrained to be monotonic. Returns
// the affected-row count; zero matches is a no-op success.
func (s *Service) AdvanceStatus(ctx context.Context, key NaturalKey, newStatus string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if !validStatuses[newStatus] {
		return 0, apperr.Validationf("status", "unknown status %q", newStatus)
	}

	items, err := s.current.FindExact(ctx, key)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, item := range items {
		n, err := s.current.UpdateStatus(ctx, item.ID, newStatus)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// EditSubtype replaces the subtype of the rows identified by (registration
// number, timestamp, kind, type). newStatus is accepted only for the current
// relation; archival rows have no status column to edit.
func (s *Service) EditSubtype(ctx context.Context, scope Scope, key NaturalKey, newSubtype, newStatus string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	repo, err := s.repo(scope)
	if err != nil {
		return 0, err
	}
	if newSubtype == "" {
		return 0, apperr.Validationf("subtype", "required")
	}
	if newStatus != "" {
		if scope != ScopeCurrent {
			return 0, apperr.Validationf("status", "archival items have no status")
		}
		if !validStatuses[newStatus] {
			return 0, apperr.Validationf("status", "unknown status %q", newStatus)
		}
	}

	items, err := repo.FindForEdit(ctx, key)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, item := range items {
		var n int64
		if newStatus != "" {
			n, err = s.current.UpdateSubtypeAndStatus(ctx, item.ID, key.Kind, newSubtype, newStatus)
		} else {
			n, err = repo.UpdateSubtype(ctx, item.ID, key.Kind, newSubtype)
		}
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DeleteItem removes the rows matching the full natural key. Returns the
// affected-row count; zero matches is a no-op success.
func (s *Service) DeleteItem(ctx context.Context, scope Scope, key NaturalKey) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	repo, err := s.repo(scope)
	if err != nil {
		return 0, err
	}

	items, err := repo.FindExact(ctx, key)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, item := range items {
		n, err := repo.Delete(ctx, item.ID)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
