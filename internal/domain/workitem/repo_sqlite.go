package workitem

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wardbook/wardbook/internal/platform/db"
	"github.com/wardbook/wardbook/pkg/apperr"
)

// payloadCols splits a payload into the four nullable payload columns; the
// unused kind's pair stays NULL.
func payloadCols(p Payload) (labType, labSubtype, imagingType, imagingSubtype interface{}) {
	switch p.Kind {
	case KindLab:
		return p.Type, p.Subtype, nil, nil
	case KindImaging:
		return nil, nil, p.Type, p.Subtype
	}
	return nil, nil, nil, nil
}

// kindPredicate builds the payload half of a natural-key predicate. Only the
// columns of the key's kind are constrained, so a lab key can never match an
// imaging row that happens to share type and subtype strings.
func kindPredicate(key NaturalKey, matchSubtype bool) (string, []interface{}, error) {
	var col string
	switch key.Kind {
	case KindLab:
		col = "lab"
	case KindImaging:
		col = "imaging"
	default:
		return "", nil, apperr.Validationf("kind", "must be lab or imaging")
	}
	clause := fmt.Sprintf(" AND %s_type = ?", col)
	args := []interface{}{key.Type}
	if matchSubtype {
		clause += fmt.Sprintf(" AND %s_subtype = ?", col)
		args = append(args, key.Subtype)
	}
	return clause, args, nil
}

func subtypeColumn(kind PayloadKind) (string, error) {
	switch kind {
	case KindLab:
		return "lab_subtype", nil
	case KindImaging:
		return "imaging_subtype", nil
	}
	return "", apperr.Validationf("kind", "must be lab or imaging")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner, withStatus bool) (*WorkItem, error) {
	var (
		item            WorkItem
		id, at          string
		labType, labSub sql.NullString
		imgType, imgSub sql.NullString
	)
	dest := []interface{}{&id, &item.RegistrationNumber, &labType, &labSub, &imgType, &imgSub, &at}
	if withStatus {
		dest = append(dest, &item.Status)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	item.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse work item id %q: %w", id, err)
	}
	item.DateAndTime, err = time.Parse(db.TimeLayout, at)
	if err != nil {
		return nil, fmt.Errorf("parse date_and_time %q: %w", at, err)
	}
	switch {
	case labType.Valid:
		item.Payload = Payload{Kind: KindLab, Type: labType.String, Subtype: labSub.String}
	case imgType.Valid:
		item.Payload = Payload{Kind: KindImaging, Type: imgType.String, Subtype: imgSub.String}
	}
	return &item, nil
}

func affected(res sql.Result, op string) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Store(op, err)
	}
	return n, nil
}

// -- tasks --

type tasksRepo struct{ sqldb *sql.DB }

// NewTasksRepo returns the repository for the current work-item relation.
func NewTasksRepo(sqldb *sql.DB) StatusRepository {
	return &tasksRepo{sqldb: sqldb}
}

func (r *tasksRepo) conn(ctx context.Context) db.Queryer { return db.Conn(ctx, r.sqldb) }

const taskCols = `id, registrationNumber, lab_type, lab_subtype, imaging_type, imaging_subtype, date_and_time, task_status`

func (r *tasksRepo) Insert(ctx context.Context, item *WorkItem) error {
	labType, labSub, imgType, imgSub := payloadCols(item.Payload)
	_, err := r.conn(ctx).ExecContext(ctx, `
		INSERT INTO tasks (id, registrationNumber, lab_type, lab_subtype, imaging_type, imaging_subtype, date_and_time, task_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID.String(), item.RegistrationNumber, labType, labSub, imgType, imgSub,
		item.DateAndTime.UTC().Format(db.TimeLayout), item.Status)
	return apperr.Store("insert task", err)
}

func (r *tasksRepo) ListByPatient(ctx context.Context, regno string, limit, offset int) ([]*WorkItem, int, error) {
	var total int
	if err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE registrationNumber = ?`, regno).Scan(&total); err != nil {
		return nil, 0, apperr.Store("count tasks", err)
	}
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+taskCols+` FROM tasks WHERE registrationNumber = ? ORDER BY date_and_time DESC LIMIT ? OFFSET ?`,
		regno, limit, offset)
	if err != nil {
		return nil, 0, apperr.Store("list tasks", err)
	}
	defer rows.Close()

	var items []*WorkItem
	for rows.Next() {
		item, err := scanItem(rows, true)
		if err != nil {
			return nil, 0, apperr.Store("scan task", err)
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (r *tasksRepo) find(ctx context.Context, key NaturalKey, matchSubtype bool) ([]*WorkItem, error) {
	clause, kindArgs, err := kindPredicate(key, matchSubtype)
	if err != nil {
		return nil, err
	}
	args := append([]interface{}{key.RegistrationNumber, key.DateAndTime.UTC().Format(db.TimeLayout)}, kindArgs...)
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+taskCols+` FROM tasks WHERE registrationNumber = ? AND date_and_time = ?`+clause, args...)
	if err != nil {
		return nil, apperr.Store("find tasks", err)
	}
	defer rows.Close()

	var items []*WorkItem
	for rows.Next() {
		item, err := scanItem(rows, true)
		if err != nil {
			return nil, apperr.Store("scan task", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *tasksRepo) FindForEdit(ctx context.Context, key NaturalKey) ([]*WorkItem, error) {
	return r.find(ctx, key, false)
}

func (r *tasksRepo) FindExact(ctx context.Context, key NaturalKey) ([]*WorkItem, error) {
	return r.find(ctx, key, true)
}

func (r *tasksRepo) UpdateSubtype(ctx context.Context, id uuid.UUID, kind PayloadKind, subtype string) (int64, error) {
	col, err := subtypeColumn(kind)
	if err != nil {
		return 0, err
	}
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE tasks SET `+col+` = ? WHERE id = ?`, subtype, id.String())
	if err != nil {
		return 0, apperr.Store("update task subtype", err)
	}
	return affected(res, "update task subtype")
}

func (r *tasksRepo) UpdateSubtypeAndStatus(ctx context.Context, id uuid.UUID, kind PayloadKind, subtype, status string) (int64, error) {
	col, err := subtypeColumn(kind)
	if err != nil {
		return 0, err
	}
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE tasks SET `+col+` = ?, task_status = ? WHERE id = ?`, subtype, status, id.String())
	if err != nil {
		return 0, apperr.Store("update task", err)
	}
	return affected(res, "update task")
}

func (r *tasksRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE tasks SET task_status = ? WHERE id = ?`, status, id.String())
	if err != nil {
		return 0, apperr.Store("update task status", err)
	}
	return affected(res, "update task status")
}

func (r *tasksRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id.String())
	if err != nil {
		return 0, apperr.Store("delete task", err)
	}
	return affected(res, "delete task")
}

func (r *tasksRepo) ReassignRegistration(ctx context.Context, oldKey, newKey string) (int64, error) {
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE tasks SET registrationNumber = ? WHERE registrationNumber = ?`, newKey, oldKey)
	if err != nil {
		return 0, apperr.Store("reassign tasks", err)
	}
	return affected(res, "reassign tasks")
}

// -- oldlabs --

type oldLabsRepo struct{ sqldb *sql.DB }

// NewOldLabsRepo returns the repository for the archival work-item relation.
func NewOldLabsRepo(sqldb *sql.DB) Repository {
	return &oldLabsRepo{sqldb: sqldb}
}

func (r *oldLabsRepo) conn(ctx context.Context) db.Queryer { return db.Conn(ctx, r.sqldb) }

const oldLabCols = `id, registrationNumber, lab_type, lab_subtype, imaging_type, imaging_subtype, date_and_time`

func (r *oldLabsRepo) Insert(ctx context.Context, item *WorkItem) error {
	labType, labSub, imgType, imgSub := payloadCols(item.Payload)
	_, err := r.conn(ctx).ExecContext(ctx, `
		INSERT INTO oldlabs (id, registrationNumber, lab_type, lab_subtype, imaging_type, imaging_subtype, date_and_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID.String(), item.RegistrationNumber, labType, labSub, imgType, imgSub,
		item.DateAndTime.UTC().Format(db.TimeLayout))
	return apperr.Store("insert archival item", err)
}

func (r *oldLabsRepo) ListByPatient(ctx context.Context, regno string, limit, offset int) ([]*WorkItem, int, error) {
	var total int
	if err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM oldlabs WHERE registrationNumber = ?`, regno).Scan(&total); err != nil {
		return nil, 0, apperr.Store("count archival items", err)
	}
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+oldLabCols+` FROM oldlabs WHERE registrationNumber = ? ORDER BY date_and_time DESC LIMIT ? OFFSET ?`,
		regno, limit, offset)
	if err != nil {
		return nil, 0, apperr.Store("list archival items", err)
	}
	defer rows.Close()

	var items []*WorkItem
	for rows.Next() {
		item, err := scanItem(rows, false)
		if err != nil {
			return nil, 0, apperr.Store("scan archival item", err)
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (r *oldLabsRepo) find(ctx context.Context, key NaturalKey, matchSubtype bool) ([]*WorkItem, error) {
	clause, kindArgs, err := kindPredicate(key, matchSubtype)
	if err != nil {
		return nil, err
	}
	args := append([]interface{}{key.RegistrationNumber, key.DateAndTime.UTC().Format(db.TimeLayout)}, kindArgs...)
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+oldLabCols+` FROM oldlabs WHERE registrationNumber = ? AND date_and_time = ?`+clause, args...)
	if err != nil {
		return nil, apperr.Store("find archival items", err)
	}
	defer rows.Close()

	var items []*WorkItem
	for rows.Next() {
		item, err := scanItem(rows, false)
		if err != nil {
			return nil, apperr.Store("scan archival item", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *oldLabsRepo) FindForEdit(ctx context.Context, key NaturalKey) ([]*WorkItem, error) {
	return r.find(ctx, key, false)
}

func (r *oldLabsRepo) FindExact(ctx context.Context, key NaturalKey) ([]*WorkItem, error) {
	return r.find(ctx, key, true)
}

func (r *oldLabsRepo) UpdateSubtype(ctx context.Context, id uuid.UUID, kind PayloadKind, subtype string) (int64, error) {
	col, err := subtypeColumn(kind)
	if err != nil {
		return 0, err
	}
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE oldlabs SET `+col+` = ? WHERE id = ?`, subtype, id.String())
	if err != nil {
		return 0, apperr.Store("update archival subtype", err)
	}
	return affected(res, "update archival subtype")
}

func (r *oldLabsRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM oldlabs WHERE id = ?`, id.String())
	if err != nil {
		return 0, apperr.Store("delete archival item", err)
	}
	return affected(res, "delete archival item")
}

func (r *oldLabsRepo) ReassignRegistration(ctx context.Context, oldKey, newKey string) (int64, error) {
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE oldlabs SET registrationNumber = ? WHERE registrationNumber = ?`, newKey, oldKey)
	if err != nil {
		return 0, apperr.Store("reassign archival items", err)
	}
	return affected(res, "reassign archival items")
}
