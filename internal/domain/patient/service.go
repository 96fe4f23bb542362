package patient

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wardbook/wardbook/pkg/apperr"
)

// Atomic runs fn as one atomic unit. The production implementation wraps a
// store transaction (db.WithTx); tests substitute a passthrough.
type Atomic func(ctx context.Context, fn func(ctx context.Context) error) error

// Passthrough is an Atomic that provides no transactional guarantee. Suitable
// only for tests.
func Passthrough(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type Service struct {
	patients Repository
	inTx     Atomic
	cascades []Propagator
}

// NewService builds the patient registry. cascades receive the rename of a
// registration number, one per dependent relation.
func NewService(patients Repository, inTx Atomic, cascades ...Propagator) *Service {
	return &Service{patients: patients, inTx: inTx, cascades: cascades}
}

func (s *Service) ready() error {
	if s.patients == nil || s.inTx == nil {
		return apperr.ErrNotInitialized
	}
	return nil
}

func validate(p *Patient) error {
	if strings.TrimSpace(p.RegistrationNumber) == "" {
		return apperr.Validationf("registration_number", "required")
	}
	if strings.TrimSpace(p.PatientName) == "" {
		return apperr.Validationf("patient_name", "required")
	}
	if p.Age <= 0 {
		return apperr.Validationf("age", "must be positive, got %d", p.Age)
	}
	if !validGenders[p.Gender] {
		return apperr.Validationf("gender", "must be one of Male, Female, Other")
	}
	if !validLocations[p.Location] {
		return apperr.Validationf("location", "unknown ward %q", p.Location)
	}
	if p.BedNumber != nil && *p.BedNumber <= 0 {
		return apperr.Validationf("bed_number", "must be positive, got %d", *p.BedNumber)
	}
	return nil
}

// CreatePatient registers a new patient. The admission date is set to the
// current UTC date and the patient starts admitted.
func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := validate(p); err != nil {
		return err
	}

	// Uniqueness is checked against all patients, discharged or not.
	exists, err := s.patients.Exists(ctx, p.RegistrationNumber)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Duplicate(p.RegistrationNumber)
	}

	p.ID = uuid.New()
	p.RegDate = time.Now().UTC().Truncate(24 * time.Hour)
	p.IsDischarged = false
	return s.patients.Insert(ctx, p)
}

// UpdatePatient rewrites the mutable columns of the patient currently known
// as originalKey. When the registration number changes, the patient row and
// every dependent relation are updated in one transaction; any failure rolls
// the whole rename back.
func (s *Service) UpdatePatient(ctx context.Context, originalKey string, p *Patient) error {
	if err := s.ready(); err != nil {
		return err
	}

	existing, err := s.patients.GetByRegistration(ctx, originalKey)
	if err != nil {
		return err
	}
	if err := validate(p); err != nil {
		return err
	}

	renamed := p.RegistrationNumber != originalKey
	if renamed {
		taken, err := s.patients.ExistsOther(ctx, p.RegistrationNumber, existing.ID)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Duplicate(p.RegistrationNumber)
		}
	}

	p.ID = existing.ID
	p.RegDate = existing.RegDate
	p.IsDischarged = existing.IsDischarged

	if !renamed {
		return s.patients.Update(ctx, p)
	}

	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.patients.Update(ctx, p); err != nil {
			return err
		}
		for _, cascade := range s.cascades {
			if _, err := cascade.ReassignRegistration(ctx, originalKey, p.RegistrationNumber); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetDischarged toggles admission state. Idempotent; the only check is that
// the patient exists. Never touches dependent relations.
func (s *Service) SetDischarged(ctx context.Context, regno string, discharged bool) error {
	if err := s.ready(); err != nil {
		return err
	}
	affected, err := s.patients.SetDischarged(ctx, regno, discharged)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Service) GetPatient(ctx context.Context, regno string) (*Patient, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.patients.GetByRegistration(ctx, regno)
}

func (s *Service) ListPatients(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	return s.patients.List(ctx, filter, limit, offset)
}

// Exists reports whether regno names a registered patient. Other ledgers use
// it to reject work items for unknown patients.
func (s *Service) Exists(ctx context.Context, regno string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.patients.Exists(ctx, regno)
}
