package report

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wardbook/wardbook/internal/domain/census"
	"github.com/wardbook/wardbook/internal/domain/patient"
	"github.com/wardbook/wardbook/internal/domain/workitem"
	"github.com/wardbook/wardbook/internal/platform/db"
)

func openSeededStore(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	sqldb, err := db.OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })
	_, err = db.NewMigrator(sqldb, "../../../migrations").Up(ctx)
	require.NoError(t, err)

	require.NoError(t, patient.NewRepoSQLite(sqldb).Insert(ctx, &patient.Patient{
		ID:                 uuid.New(),
		RegistrationNumber: "R100",
		PatientName:        "Meera Nair",
		Age:                47,
		Gender:             "Female",
		Location:           "ICU",
		RegDate:            time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, workitem.NewTasksRepo(sqldb).Insert(ctx, &workitem.WorkItem{
		ID:                 uuid.New(),
		RegistrationNumber: "R100",
		Payload:            workitem.Payload{Kind: workitem.KindLab, Type: "blood", Subtype: "CBC"},
		DateAndTime:        time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC),
		Status:             workitem.StatusUnsent,
	}))
	return sqldb
}

func TestWorklistWorkbook(t *testing.T) {
	sqldb := openSeededStore(t)
	builder := NewBuilder(census.NewService(census.NewRepoSQLite(sqldb)))

	data, err := builder.Worklist(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Contains(t, sheets, "Census")
	require.Contains(t, sheets, "Pending")
	require.NotContains(t, sheets, "Sheet1")

	rows, err := f.GetRows("Census")
	require.NoError(t, err)
	// Header plus one row per ward.
	require.Len(t, rows, 1+len(patient.Locations()))
	require.Equal(t, censusHeader, rows[0])

	rows, err = f.GetRows("Pending")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "R100", rows[1][0])
	require.Equal(t, "Meera Nair", rows[1][1])
	require.Equal(t, "lab", rows[1][2])
}
