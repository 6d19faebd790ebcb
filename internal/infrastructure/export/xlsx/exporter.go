package xlsx

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheetName   = "Predictions"
)

var header = []any{
	"Prediction ID", "Created At (UTC)", "File", "Predicted Class", "Confidence",
	"Symptom Start Date", "Days Elapsed", "Stage", "Stage Number", "Severity",
	"Progression Rate", "Clinical Notes",
}

// Exporter renders prediction history as a single-sheet workbook.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ContentType() string {
	return ContentType
}

func (e *Exporter) Write(w io.Writer, predictions []domain.Prediction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, p := range predictions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
		row := predictionRow(p)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 38); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, "L", "L", 80); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func predictionRow(p domain.Prediction) []any {
	onset := ""
	if p.SymptomStartDate != nil {
		onset = *p.SymptomStartDate
	}
	stageNumber := ""
	if p.StageInfo.StageNumber != nil {
		stageNumber = strconv.Itoa(*p.StageInfo.StageNumber)
	}
	return []any{
		p.ID,
		p.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		p.Filename,
		string(p.PredictedClass),
		p.Confidence,
		onset,
		p.StageInfo.DaysElapsed,
		p.StageInfo.StageName(),
		stageNumber,
		p.StageInfo.SeverityLabel(),
		p.StageInfo.Progression(),
		p.StageInfo.ClinicalNotes,
	}
}
