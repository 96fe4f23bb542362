package consult

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wardbook/wardbook/pkg/apperr"
)

// PatientDirectory is the slice of the patient registry this ledger needs.
type PatientDirectory interface {
	Exists(ctx context.Context, regno string) (bool, error)
}

type Service struct {
	current  Repository
	archive  Repository
	patients PatientDirectory
}

func NewService(current, archive Repository, patients PatientDirectory) *Service {
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

// AddConsult records a consultation request. The current relation accepts
// duplicate texts; the archival relation pre-checks the (registration number,
// text) pair and reports created=false without inserting when it already
// exists. The suppressed duplicate is an expected outcome, not an error.
func (s *Service) AddConsult(ctx context.Context, scope Scope, regno, text string) (*Consultation, bool, error) {
	if err := s.ready(); err != nil {
		return nil, false, err
	}
	repo, err := s.repo(scope)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, false, apperr.Validationf("consult", "required")
	}
	if regno == "" {
		return nil, false, apperr.Validationf("registration_number", "required")
	}
	exists, err := s.patients.Exists(ctx, regno)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, apperr.Validationf("registration_number", "no patient %q", regno)
	}

	if scope == ScopeArchive {
		dup, err := repo.ExistsPair(ctx, regno, text)
		if err != nil {
			return nil, false, err
		}
		if dup {
			return nil, false, nil
		}
	}

	con := &Consultation{
		ID:                 uuid.New(),
		RegistrationNumber: regno,
		Consult:            text,
		DateAndTime:        time.Now().UTC(),
		Status:             StatusUnsent,
	}
	if err := repo.Insert(ctx, con); err != nil {
		return nil, false, err
	}
	return con, true, nil
}

func (s *Service) ListByPatient(ctx context.Context, scope Scope, regno string, limit, offset int) ([]*Consultation, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	repo, err := s.repo(scope)
	if err != nil {
		return nil, 0, err
	}
	return repo.ListByPatient(ctx, regno, limit, offset)
}

// AdvanceStatus writes newStatus to current-relation rows matching the
// natural key. Archival consultations keep their stored status untouched.
func (s *Service) AdvanceStatus(ctx context.Context, key NaturalKey, newStatus string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if !validStatuses[newStatus] {
		return 0, apperr.Validationf("status", "unknown status %q", newStatus)
	}

	items, err := s.current.FindByKey(ctx, key)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, con := range items {
		n, err := s.current.UpdateStatus(ctx, con.ID, newStatus)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// UpdateConsult rewrites the consult text of rows matching the natural key.
// newStatus is accepted only for the current relation.
func (s *Service) UpdateConsult(ctx context.Context, scope Scope, key NaturalKey, newText, newStatus string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	repo, err := s.repo(scope)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(newText) == "" {
		return 0, apperr.Validationf("consult", "required")
	}
	if newStatus != "" {
		if scope != ScopeCurrent {
			return 0, apperr.Validationf("status", "archival consultations are not advanced")
		}
		if !validStatuses[newStatus] {
			return 0, apperr.Validationf("status", "unknown status %q", newStatus)
		}
	}

	items, err := repo.FindByKey(ctx, key)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, con := range items {
		var n int64
		if newStatus != "" {
			n, err = repo.UpdateTextAndStatus(ctx, con.ID, newText, newStatus)
		} else {
			n, err = repo.UpdateText(ctx, con.ID, newText)
		}
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DeleteConsult removes rows matching the natural key. Zero matches is a
// no-op success.
func (s *Service) DeleteConsult(ctx context.Context, scope Scope, key NaturalKey) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	repo, err := s.repo(scope)
	if err != nil {
		return 0, err
	}

	items, err := repo.FindByKey(ctx, key)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, con := range items {
		n, err := repo.Delete(ctx, con.ID)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
