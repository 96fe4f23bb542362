package consult

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wardbook/wardbook/internal/platform/db"
	"github.com/wardbook/wardbook/pkg/apperr"
)

// repoSQLite serves one consultation relation. The table name is fixed by the
// constructor; callers never pass one.
type repoSQLite struct {
	sqldb *sql.DB
	table string
}

// NewConsultationsRepo returns the repository for the current relation.
func NewConsultationsRepo(sqldb *sql.DB) Repository {
	return &repoSQLite{sqldb: sqldb, table: "consultations"}
}

// NewOldConsultationsRepo returns the repository for the archival relation.
func NewOldConsultationsRepo(sqldb *sql.DB) Repository {
	return &repoSQLite{sqldb: sqldb, table: "oldconsultations"}
}

func (r *repoSQLite) conn(ctx context.Context) db.Queryer { return db.Conn(ctx, r.sqldb) }

const consultCols = `id, registrationNumber, consult, date_and_time, task_status`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConsultation(row rowScanner) (*Consultation, error) {
	var (
		con    Consultation
		id, at string
	)
	if err := row.Scan(&id, &con.RegistrationNumber, &con.Consult, &at, &con.Status); err != nil {
		return nil, err
	}
	var err error
	con.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse consultation id %q: %w", id, err)
	}
	con.DateAndTime, err = time.Parse(db.TimeLayout, at)
	if err != nil {
		return nil, fmt.Errorf("parse date_and_time %q: %w", at, err)
	}
	return &con, nil
}

func (r *repoSQLite) Insert(ctx context.Context, con *Consultation) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		`INSERT INTO `+r.table+` (id, registrationNumber, consult, date_and_time, task_status) VALUES (?, ?, ?, ?, ?)`,
		con.ID.String(), con.RegistrationNumber, con.Consult,
		con.DateAndTime.UTC().Format(db.TimeLayout), con.Status)
	return apperr.Store("insert consultation", err)
}

func (r *repoSQLite) ListByPatient(ctx context.Context, regno string, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+r.table+` WHERE registrationNumber = ?`, regno).Scan(&total); err != nil {
		return nil, 0, apperr.Store("count consultations", err)
	}
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+consultCols+` FROM `+r.table+` WHERE registrationNumber = ? ORDER BY date_and_time DESC LIMIT ? OFFSET ?`,
		regno, limit, offset)
	if err != nil {
		return nil, 0, apperr.Store("list consultations", err)
	}
	defer rows.Close()

	var items []*Consultation
	for rows.Next() {
		con, err := scanConsultation(rows)
		if err != nil {
			return nil, 0, apperr.Store("scan consultation", err)
		}
		items = append(items, con)
	}
	return items, total, rows.Err()
}

func (r *repoSQLite) FindByKey(ctx context.Context, key NaturalKey) ([]*Consultation, error) {
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+consultCols+` FROM `+r.table+` WHERE registrationNumber = ? AND consult = ? AND date_and_time = ?`,
		key.RegistrationNumber, key.Consult, key.DateAndTime.UTC().Format(db.TimeLayout))
	if err != nil {
		return nil, apperr.Store("find consultations", err)
	}
	defer rows.Close()

	var items []*Consultation
	for rows.Next() {
		con, err := scanConsultation(rows)
		if err != nil {
			return nil, apperr.Store("scan consultation", err)
		}
		items = append(items, con)
	}
	return items, rows.Err()
}

func (r *repoSQLite) ExistsPair(ctx context.Context, regno, text string) (bool, error) {
	var n int
	err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+r.table+` WHERE registrationNumber = ? AND consult = ?`,
		regno, text).Scan(&n)
	if err != nil {
		return false, apperr.Store("check consultation pair", err)
	}
	return n > 0, nil
}

func (r *repoSQLite) exec(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	res, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperr.Store(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Store(op, err)
	}
	return n, nil
}

func (r *repoSQLite) UpdateText(ctx context.Context, id uuid.UUID, text string) (int64, error) {
	return r.exec(ctx, "update consultation",
		`UPDATE `+r.table+` SET consult = ? WHERE id = ?`, text, id.String())
}

func (r *repoSQLite) UpdateTextAndStatus(ctx context.Context, id uuid.UUID, text, status string) (int64, error) {
	return r.exec(ctx, "update consultation",
		`UPDATE `+r.table+` SET consult = ?, task_status = ? WHERE id = ?`, text, status, id.String())
}

func (r *repoSQLite) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	return r.exec(ctx, "update consultation status",
		`UPDATE `+r.table+` SET task_status = ? WHERE id = ?`, status, id.String())
}

func (r *repoSQLite) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.exec(ctx, "delete consultation",
		`DELETE FROM `+r.table+` WHERE id = ?`, id.String())
}

func (r *repoSQLite) ReassignRegistration(ctx context.Context, oldKey, newKey string) (int64, error) {
	return r.exec(ctx, "reassign consultations",
		`UPDATE `+r.table+` SET registrationNumber = ? WHERE registrationNumber = ?`, newKey, oldKey)
}
