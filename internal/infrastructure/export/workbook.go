// Package export writes recorded print jobs and reprints to spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/erp/receipt/internal/domain/printing"
)

// Sheet names of the exported workbook
const (
	JobsSheet     = "Jobs"
	ReprintsSheet = "Reprints"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	jobHeader = []any{
		"ID", "Created", "Source", "Printer", "Status", "Document",
		"Bytes", "Requested by", "Client IP", "Printed", "Error",
	}
	reprintHeader = []any{"Timestamp", "Action", "Sale", "Seller", "Total", "IP"}
)

// WriteWorkbook writes jobs and reprints as two sheets of an xlsx workbook
func WriteWorkbook(w io.Writer, jobs []printing.PrintJob, reprints []printing.ReprintEntry) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", JobsSheet); err != nil {
		return fmt.Errorf("failed to name jobs sheet: %w", err)
	}
	if _, err := f.NewSheet(ReprintsSheet); err != nil {
		return fmt.Errorf("failed to create reprints sheet: %w", err)
	}

	jobRows := make([][]any, 0, len(jobs)+1)
	jobRows = append(jobRows, jobHeader)
	for i := range jobs {
		jobRows = append(jobRows, jobRow(&jobs[i]))
	}
	if err := writeRows(f, JobsSheet, jobRows); err != nil {
		return err
	}

	reprintRows := make([][]any, 0, len(reprints)+1)
	reprintRows = append(reprintRows, reprintHeader)
	for _, r := range reprints {
		total, _ := r.Total.Float64()
		reprintRows = append(reprintRows, []any{
			r.Timestamp.Format(timeLayout), r.Action, r.SaleID, r.Seller, total, r.ClientIP,
		})
	}
	if err := writeRows(f, ReprintsSheet, reprintRows); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func jobRow(j *printing.PrintJob) []any {
	printed := ""
	if j.PrintedAt != nil {
		printed = j.PrintedAt.Format(timeLayout)
	}
	return []any{
		j.ID.String(),
		j.CreatedAt.Format(timeLayout),
		string(j.Source),
		j.PrinterName,
		string(j.Status),
		j.DocumentName,
		j.ByteSize,
		j.RequestedBy,
		j.ClientIP,
		printed,
		j.ErrorMessage,
	}
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 0 {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze %s header: %w", sheet, err)
		}
	}
	return nil
}

// ExportedAt is the name suffix used for workbooks written at t
func ExportedAt(t time.Time) string {
	return t.Format("20060102_150405")
}
