package patient_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wardbook/wardbook/internal/domain/consult"
	"github.com/wardbook/wardbook/internal/domain/patient"
	"github.com/wardbook/wardbook/internal/domain/workitem"
	"github.com/wardbook/wardbook/internal/platform/db"
)

// The rename cascade is the one multi-table write in the system; this test
// runs it against a real store with every dependent relation populated.

type fixture struct {
	sqldb       *sql.DB
	patients    *patient.Service
	tasks       workitem.StatusRepository
	oldLabs     workitem.Repository
	consults    consult.Repository
	oldConsults consult.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	sqldb, err := db.OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })
	_, err = db.NewMigrator(sqldb, "../../../migrations").Up(ctx)
	require.NoError(t, err)

	tasks := workitem.NewTasksRepo(sqldb)
	oldLabs := workitem.NewOldLabsRepo(sqldb)
	consults := consult.NewConsultationsRepo(sqldb)
	oldConsults := consult.NewOldConsultationsRepo(sqldb)

	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, sqldb, fn)
	}
	svc := patient.NewService(patient.NewRepoSQLite(sqldb), inTx,
		tasks, oldLabs, consults, oldConsults)

	return &fixture{
		sqldb:       sqldb,
		patients:    svc,
		tasks:       tasks,
		oldLabs:     oldLabs,
		consults:    consults,
		oldConsults: oldConsults,
	}
}

func (f *fixture) seed(t *testing.T, regno string) {
	t.Helper()
	ctx := context.Background()

	p := &patient.Patient{
		RegistrationNumber: regno,
		PatientName:        "Meera Nair",
		Age:                47,
		Gender:             "Female",
		Location:           "HDU",
	}
	require.NoError(t, f.patients.CreatePatient(ctx, p))

	at := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	require.NoError(t, f.tasks.Insert(ctx, &workitem.WorkItem{
		ID:                 uuid.New(),
		RegistrationNumber: regno,
		Payload:            workitem.Payload{Kind: workitem.KindLab, Type: "blood", Subtype: "CBC"},
		DateAndTime:        at,
		Status:             workitem.StatusUnsent,
	}))
	require.NoError(t, f.oldLabs.Insert(ctx, &workitem.WorkItem{
		ID:                 uuid.New(),
		RegistrationNumber: regno,
		Payload:            workitem.Payload{Kind: workitem.KindImaging, Type: "CT", Subtype: "head"},
		DateAndTime:        at,
	}))
	require.NoError(t, f.consults.Insert(ctx, &consult.Consultation{
		ID:                 uuid.New(),
		RegistrationNumber: regno,
		Consult:            "cardiology review",
		DateAndTime:        at,
		Status:             consult.StatusUnsent,
	}))
	require.NoError(t, f.oldConsults.Insert(ctx, &consult.Consultation{
		ID:                 uuid.New(),
		RegistrationNumber: regno,
		Consult:            "old nephrology review",
		DateAndTime:        at,
		Status:             consult.StatusCollected,
	}))
}

func (f *fixture) countsFor(t *testing.T, regno string) [4]int {
	t.Helper()
	ctx := context.Background()

	var counts [4]int
	_, counts[0], _ = f.tasks.ListByPatient(ctx, regno, 100, 0)
	_, counts[1], _ = f.oldLabs.ListByPatient(ctx, regno, 100, 0)
	_, counts[2], _ = f.consults.ListByPatient(ctx, regno, 100, 0)
	_, counts[3], _ = f.oldConsults.ListByPatient(ctx, regno, 100, 0)
	return counts
}

func TestRenameCascadesToAllRelations(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "R100")
	ctx := context.Background()

	upd := &patient.Patient{
		RegistrationNumber: "R999",
		PatientName:        "Meera Nair",
		Age:                47,
		Gender:             "Female",
		Location:           "HDU",
	}
	require.NoError(t, f.patients.UpdatePatient(ctx, "R100", upd))

	require.Equal(t, [4]int{0, 0, 0, 0}, f.countsFor(t, "R100"))
	require.Equal(t, [4]int{1, 1, 1, 1}, f.countsFor(t, "R999"))

	got, err := f.patients.GetPatient(ctx, "R999")
	require.NoError(t, err)
	require.Equal(t, "Meera Nair", got.PatientName)
}

func TestRenameToTakenKeyLeavesEverythingUntouched(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "R100")
	ctx := context.Background()

	other := &patient.Patient{
		RegistrationNumber: "R200",
		PatientName:        "Arjun Pillai",
		Age:                30,
		Gender:             "Male",
		Location:           "Emergency",
	}
	require.NoError(t, f.patients.CreatePatient(ctx, other))

	upd := &patient.Patient{
		RegistrationNumber: "R200",
		PatientName:        "Meera Nair",
		Age:                47,
		Gender:             "Female",
		Location:           "HDU",
	}
	require.Error(t, f.patients.UpdatePatient(ctx, "R100", upd))

	require.Equal(t, [4]int{1, 1, 1, 1}, f.countsFor(t, "R100"))
	require.Equal(t, [4]int{0, 0, 0, 0}, f.countsFor(t, "R200"))
}

func TestRenameRollsBackWhenCascadeFails(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "R100")
	ctx := context.Background()

	// Rebuild the service with a cascade that fails after the earlier ones
	// have written. The whole rename must roll back.
	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, f.sqldb, fn)
	}
	svc := patient.NewService(patient.NewRepoSQLite(f.sqldb), inTx,
		f.tasks, f.oldLabs, f.consults, failingPropagator{})

	upd := &patient.Patient{
		RegistrationNumber: "R999",
		PatientName:        "Meera Nair",
		Age:                47,
		Gender:             "Female",
		Location:           "HDU",
	}
	require.Error(t, svc.UpdatePatient(ctx, "R100", upd))

	// Nothing moved, including the relations whose cascade had already run.
	require.Equal(t, [4]int{1, 1, 1, 1}, f.countsFor(t, "R100"))
	require.Equal(t, [4]int{0, 0, 0, 0}, f.countsFor(t, "R999"))
	_, err := f.patients.GetPatient(ctx, "R100")
	require.NoError(t, err)
}

type failingPropagator struct{}

func (failingPropagator) ReassignRegistration(context.Context, string, string) (int64, error) {
	return 0, sql.ErrConnDone
}
