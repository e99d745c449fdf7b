package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	pkgerrors "admin-notes-backend/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// ExportFormat selects the export file format
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"

	xlsxSheet = "Notes"
)

// ParseExportFormat parses a format name; the empty string selects CSV.
func ParseExportFormat(name string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(ExportCSV):
		return ExportCSV, nil
	case string(ExportXLSX):
		return ExportXLSX, nil
	default:
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unsupported export format %q", name))
	}
}

// ContentType returns the MIME type of the format
func (f ExportFormat) ContentType() string {
	if f == ExportXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns the attachment file name for an export taken on date
// (formatted YYYY-MM-DD).
func (f ExportFormat) FileName(date string) string {
	return fmt.Sprintf("admin-notes-%s.%s", date, f)
}

// Export writes every note, in stored order, to w.
func (s *NotesService) Export(ctx context.Context, format ExportFormat, w io.Writer) error {
	list, err := s.List(ctx)
	if err != nil {
		return err
	}

	switch format {
	case ExportCSV:
		err = WriteCSV(w, list)
	case ExportXLSX:
		err = WriteXLSX(w, list)
	default:
		return pkgerrors.NewValidationError(fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return pkgerrors.NewInternalError("failed to write export").WithCause(err)
	}

	s.metrics.RecordExport(string(format))
	return nil
}

// WriteCSV writes one note per row in a single column, without a header.
func WriteCSV(w io.Writer, list []string) error {
	cw := csv.NewWriter(w)
	for _, note := range list {
		if err := cw.Write([]string{note}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes one note per row in column A of a "Notes" worksheet.
func WriteXLSX(w io.Writer, list []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}
	for i, note := range list {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(xlsxSheet, cell, note); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}
