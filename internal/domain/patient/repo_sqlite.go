package patient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wardbook/wardbook/internal/platform/db"
	"github.com/wardbook/wardbook/pkg/apperr"
)

type repoSQLite struct{ sqldb *sql.DB }

func NewRepoSQLite(sqldb *sql.DB) Repository {
	return &repoSQLite{sqldb: sqldb}
}

func (r *repoSQLite) conn(ctx context.Context) db.Queryer {
	return db.Conn(ctx, r.sqldb)
}

const patientCols = `id, registrationNumber, patientName, age, gender, location, bedNumber,
	chiefComplaints, provisionalDiagnosis, miscNotes, contact, reg_date, is_discharged`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*Patient, error) {
	var (
		p          Patient
		id         string
		bed        sql.NullInt64
		regDate    string
		discharged int
	)
	err := row.Scan(&id, &p.RegistrationNumber, &p.PatientName, &p.Age, &p.Gender, &p.Location,
		&bed, &p.ChiefComplaints, &p.ProvisionalDiagnosis, &p.MiscNotes, &p.Contact,
		&regDate, &discharged)
	if err != nil {
		return nil, err
	}
	p.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse patient id %q: %w", id, err)
	}
	if bed.Valid {
		b := int(bed.Int64)
		p.BedNumber = &b
	}
	p.RegDate, err = parseRegDate(regDate)
	if err != nil {
		return nil, err
	}
	p.IsDischarged = discharged != 0
	return &p, nil
}

func (r *repoSQLite) Insert(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		INSERT INTO patients (id, registrationNumber, patientName, age, gender, location, bedNumber,
			chiefComplaints, provisionalDiagnosis, miscNotes, contact, reg_date, is_discharged)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.RegistrationNumber, p.PatientName, p.Age, p.Gender, p.Location, p.BedNumber,
		p.ChiefComplaints, p.ProvisionalDiagnosis, p.MiscNotes, p.Contact,
		p.RegDate.Format(db.DateLayout), boolToInt(p.IsDischarged))
	return apperr.Store("insert patient", err)
}

func (r *repoSQLite) GetByRegistration(ctx context.Context, regno string) (*Patient, error) {
	row := r.conn(ctx).QueryRowContext(ctx,
		`SELECT `+patientCols+` FROM patients WHERE registrationNumber = ?`, regno)
	p, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("patient %s: %w", regno, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Store("get patient", err)
	}
	return p, nil
}

func (r *repoSQLite) Exists(ctx context.Context, regno string) (bool, error) {
	var n int
	err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM patients WHERE registrationNumber = ?`, regno).Scan(&n)
	if err != nil {
		return false, apperr.Store("check registration", err)
	}
	return n > 0, nil
}

func (r *repoSQLite) ExistsOther(ctx context.Context, regno string, excludeID uuid.UUID) (bool, error) {
	var n int
	err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM patients WHERE registrationNumber = ? AND id != ?`,
		regno, excludeID.String()).Scan(&n)
	if err != nil {
		return false, apperr.Store("check registration", err)
	}
	return n > 0, nil
}

// Update writes every mutable column, including the registration number.
// reg_date is immutable and deliberately absent from the SET list.
func (r *repoSQLite) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE patients SET registrationNumber = ?, patientName = ?, age = ?, gender = ?,
			location = ?, bedNumber = ?, chiefComplaints = ?, provisionalDiagnosis = ?,
			miscNotes = ?, contact = ?
		WHERE id = ?`,
		p.RegistrationNumber, p.PatientName, p.Age, p.Gender, p.Location, p.BedNumber,
		p.ChiefComplaints, p.ProvisionalDiagnosis, p.MiscNotes, p.Contact, p.ID.String())
	return apperr.Store("update patient", err)
}

func (r *repoSQLite) SetDischarged(ctx context.Context, regno string, discharged bool) (int64, error) {
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE patients SET is_discharged = ? WHERE registrationNumber = ?`,
		boolToInt(discharged), regno)
	if err != nil {
		return 0, apperr.Store("set discharged", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Store("set discharged", err)
	}
	return affected, nil
}

func (r *repoSQLite) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	if filter.Location != "" {
		where += ` AND location = ?`
		args = append(args, filter.Location)
	}
	if filter.Discharged != nil {
		where += ` AND is_discharged = ?`
		args = append(args, boolToInt(*filter.Discharged))
	}

	var total int
	if err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Store("count patients", err)
	}

	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+patientCols+` FROM patients`+where+` ORDER BY reg_date DESC, registrationNumber LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, apperr.Store("list patients", err)
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, apperr.Store("scan patient", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Store("list patients", err)
	}
	return items, total, nil
}

func parseRegDate(s string) (time.Time, error) {
	t, err := time.Parse(db.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse reg_date %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
