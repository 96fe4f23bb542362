// Package report renders downloadable worklist workbooks from the census
// projections.
package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/wardbook/wardbook/internal/domain/census"
	"github.com/wardbook/wardbook/internal/platform/db"
)

var censusHeader = []string{"Location", "Admitted", "Discharged"}

var pendingHeader = []string{
	"Registration Number",
	"Patient Name",
	"Category",
	"Type",
	"Detail",
	"Status",
	"Ordered At",
}

type Builder struct {
	svc *census.Service
}

func NewBuilder(svc *census.Service) *Builder {
	return &Builder{svc: svc}
}

// Worklist builds a two-sheet workbook: the per-ward census and the
// outstanding orders across all patients.
func (b *Builder) Worklist(ctx context.Context) ([]byte, error) {
	counts, err := b.svc.LocationCensus(ctx)
	if err != nil {
		return nil, err
	}
	items, err := b.svc.PendingItems(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	censusRows := make([][]interface{}, 0, len(counts))
	for _, lc := range counts {
		censusRows = append(censusRows, []interface{}{lc.Location, lc.Admitted, lc.Discharged})
	}
	if err := writeSheet(f, "Census", censusHeader, censusRows); err != nil {
		return nil, err
	}

	pendingRows := make([][]interface{}, 0, len(items))
	for _, item := range items {
		pendingRows = append(pendingRows, []interface{}{
			item.RegistrationNumber,
			item.PatientName,
			item.Category,
			item.Type,
			item.Detail,
			item.Status,
			item.DateAndTime.Format(db.TimeLayout),
		})
	}
	if err := writeSheet(f, "Pending", pendingHeader, pendingRows); err != nil {
		return nil, err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	if index, err := f.GetSheetIndex("Census"); err == nil {
		f.SetActiveSheet(index)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, header []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell for %s: %w", name, err)
		}
		if err := f.SetCellValue(name, cell, title); err != nil {
			return fmt.Errorf("set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(name, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("style header cell %s: %w", cell, err)
		}
	}

	for r, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return fmt.Errorf("data cell for %s: %w", name, err)
			}
			if err := f.SetCellValue(name, cell, value); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}
	return nil
}
