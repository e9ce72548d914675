// Package xlsx renders combined extraction and review reports as workbooks.
package xlsx

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
)

const (
	sheet       = "Report"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var headers = []string{"Field", "Value", "Status", "Feedback"}

type Exporter struct {
	logger *slog.Logger
}

func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger}
}

// Export writes one row per field under a header row, preceded by the
// document name and type.
func (e *Exporter) Export(report domain.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	_ = f.SetCellValue(sheet, "A1", "Document")
	_ = f.SetCellValue(sheet, "B1", report.Filename)
	_ = f.SetCellValue(sheet, "A2", "Document Type")
	_ = f.SetCellValue(sheet, "B2", report.DocType)

	const headerRow = 4
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A4", "D4", style)
		_ = f.SetCellStyle(sheet, "A1", "A2", style)
	}

	row := headerRow + 1
	for _, field := range report.Fields {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, field.Field)
		write(2, domain.ValueString(field.Value))
		write(3, string(field.Status))
		write(4, field.Feedback)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "B", 48)
	_ = f.SetColWidth(sheet, "C", "C", 10)
	_ = f.SetColWidth(sheet, "D", "D", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	e.logger.Debug("export.xlsx.done", "fields", len(report.Fields), "bytes", buf.Len())
	return buf.Bytes(), nil
}
