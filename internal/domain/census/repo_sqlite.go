package census

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wardbook/wardbook/internal/domain/patient"
	"github.com/wardbook/wardbook/internal/platform/db"
	"github.com/wardbook/wardbook/pkg/apperr"
)

type repoSQLite struct{ sqldb *sql.DB }

func NewRepoSQLite(sqldb *sql.DB) Repository {
	return &repoSQLite{sqldb: sqldb}
}

func (r *repoSQLite) conn(ctx context.Context) db.Queryer { return db.Conn(ctx, r.sqldb) }

// Pending means not yet collected.
const pendingCond = `task_status != 'collected'`

func (r *repoSQLite) PendingSummary(ctx context.Context) (*PendingSummary, error) {
	var s PendingSummary
	err := r.conn(ctx).QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN lab_type IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN imaging_type IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM tasks WHERE `+pendingCond).Scan(&s.Labs, &s.Imaging)
	if err != nil {
		return nil, apperr.Store("pending summary", err)
	}
	err = r.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM consultations WHERE `+pendingCond).Scan(&s.Consults)
	if err != nil {
		return nil, apperr.Store("pending summary", err)
	}
	return &s, nil
}

func (r *repoSQLite) PendingItems(ctx context.Context) ([]*PendingItem, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT t.registrationNumber, COALESCE(p.patientName, ''),
			CASE WHEN t.lab_type IS NOT NULL THEN 'lab' ELSE 'imaging' END,
			COALESCE(t.lab_type, t.imaging_type, ''),
			COALESCE(t.lab_subtype, t.imaging_subtype, ''),
			t.task_status, t.date_and_time
		FROM tasks t
		LEFT JOIN patients p ON p.registrationNumber = t.registrationNumber
		WHERE t.`+pendingCond+`
		UNION ALL
		SELECT c.registrationNumber, COALESCE(p.patientName, ''),
			'consult', '', c.consult, c.task_status, c.date_and_time
		FROM consultations c
		LEFT JOIN patients p ON p.registrationNumber = c.registrationNumber
		WHERE c.`+pendingCond+`
		ORDER BY date_and_time`)
	if err != nil {
		return nil, apperr.Store("pending items", err)
	}
	defer rows.Close()

	var items []*PendingItem
	for rows.Next() {
		var (
			item PendingItem
			at   string
		)
		if err := rows.Scan(&item.RegistrationNumber, &item.PatientName, &item.Category,
			&item.Type, &item.Detail, &item.Status, &at); err != nil {
			return nil, apperr.Store("scan pending item", err)
		}
		item.DateAndTime, err = time.Parse(db.TimeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("parse date_and_time %q: %w", at, err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *repoSQLite) PatientWorklist(ctx context.Context, regno string) ([]*PatientTask, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT
			CASE WHEN lab_type IS NOT NULL THEN 'lab' ELSE 'imaging' END,
			COALESCE(lab_type, imaging_type, ''),
			COALESCE(lab_subtype, imaging_subtype, ''),
			task_status, date_and_time
		FROM tasks WHERE registrationNumber = ?
		UNION ALL
		SELECT 'consult', '', consult, task_status, date_and_time
		FROM consultations WHERE registrationNumber = ?
		ORDER BY date_and_time DESC`, regno, regno)
	if err != nil {
		return nil, apperr.Store("patient worklist", err)
	}
	defer rows.Close()

	var items []*PatientTask
	for rows.Next() {
		var (
			item PatientTask
			at   string
		)
		if err := rows.Scan(&item.Category, &item.Type, &item.Detail, &item.Status, &at); err != nil {
			return nil, apperr.Store("scan worklist row", err)
		}
		item.DateAndTime, err = time.Parse(db.TimeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("parse date_and_time %q: %w", at, err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *repoSQLite) LocationCensus(ctx context.Context) ([]*LocationCount, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT location,
			SUM(CASE WHEN is_discharged = 0 THEN 1 ELSE 0 END),
			SUM(CASE WHEN is_discharged = 1 THEN 1 ELSE 0 END)
		FROM patients GROUP BY location`)
	if err != nil {
		return nil, apperr.Store("location census", err)
	}
	defer rows.Close()

	byLocation := make(map[string]*LocationCount)
	for rows.Next() {
		var lc LocationCount
		if err := rows.Scan(&lc.Location, &lc.Admitted, &lc.Discharged); err != nil {
			return nil, apperr.Store("scan census row", err)
		}
		byLocation[lc.Location] = &lc
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("location census", err)
	}

	// Every ward appears in the census, occupied or not.
	var counts []*LocationCount
	for _, loc := range patient.Locations() {
		if lc, ok := byLocation[loc]; ok {
			counts = append(counts, lc)
		} else {
			counts = append(counts, &LocationCount{Location: loc})
		}
	}
	return counts, nil
}
