// Package export renders finished batches as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/kiranshivaraju/recruitai/pkg/models"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	ResultsSheet = "Results"
)

// ContentType is the MIME type of a workbook produced by WriteBatch.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var resultHeaders = []string{
	"#", "Identifier", "Score", "Missing Skills", "Remarks",
	"Acceptable", "Best Match", "Email Type", "Email", "Error",
}

// WriteBatch writes b as an xlsx workbook to w. Rows follow the batch's item order.
func WriteBatch(w io.Writer, b *models.Batch) error {
	f, err := build(b)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// SaveBatch writes b to path, adding the .xlsx extension when it is missing.
func SaveBatch(path string, b *models.Batch) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f, err := build(b)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("saving workbook: %w", err)
	}
	return path, nil
}

// Filename suggests a download name for b.
func Filename(b *models.Batch) string {
	return fmt.Sprintf("batch-%s.xlsx", b.ID)
}

func build(b *models.Batch) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(ResultsSheet); err != nil {
		f.Close()
		return nil, err
	}

	if err := writeSummary(f, b); err != nil {
		f.Close()
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeResults(f, b.Items); err != nil {
		f.Close()
		return nil, fmt.Errorf("results sheet: %w", err)
	}
	return f, nil
}

func writeSummary(f *excelize.File, b *models.Batch) error {
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	_ = f.SetColWidth(SummarySheet, "A", "A", 22)
	_ = f.SetColWidth(SummarySheet, "B", "B", 40)

	var accepted, failed, best int
	for _, it := range b.Items {
		switch {
		case it.Failed():
			failed++
		case it.Acceptable:
			accepted++
		}
		if it.IsBestMatch {
			best++
		}
	}

	rows := [][2]any{
		{"Batch", b.ID.String()},
		{"Direction", string(b.Direction)},
		{"Status", b.Status},
		{"Created", b.CreatedAt.UTC().Format(time.RFC3339)},
		{"Items", len(b.Items)},
		{"Acceptable", accepted},
		{"Failed", failed},
		{"Best Matches", best},
		{"Minimum Score", b.MinimumScore},
		{"Max Missing Skills", b.MaxMissingSkills},
	}
	for i, row := range rows {
		label := fmt.Sprintf("A%d", i+1)
		if err := f.SetCellValue(SummarySheet, label, row[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, label, label, labelStyle); err != nil {
			return err
		}
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", i+1), row[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeResults(f *excelize.File, items []models.BatchItem) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	bestStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	failedStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	header := make([]any, len(resultHeaders))
	for i, h := range resultHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(ResultsSheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(resultHeaders), 1)
	if err := f.SetCellStyle(ResultsSheet, "A1", last, headerStyle); err != nil {
		return err
	}
	_ = f.SetColWidth(ResultsSheet, "B", "B", 28)
	_ = f.SetColWidth(ResultsSheet, "D", "E", 40)
	_ = f.SetColWidth(ResultsSheet, "I", "I", 60)

	for i, it := range items {
		row := i + 2
		values := []any{
			i + 1,
			it.Identifier,
			it.Analysis.Score,
			strings.Join(it.Analysis.MissingSkills, ", "),
			it.Analysis.Remarks,
			yesNo(it.Acceptable),
			yesNo(it.IsBestMatch),
			string(it.EmailType),
			it.Email,
			joinErrors(it.Error, it.EmailError),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(ResultsSheet, start, &values); err != nil {
			return err
		}

		style := 0
		switch {
		case it.Failed():
			style = failedStyle
		case it.IsBestMatch:
			style = bestStyle
		}
		if style != 0 {
			end, _ := excelize.CoordinatesToCellName(len(resultHeaders), row)
			if err := f.SetCellStyle(ResultsSheet, start, end, style); err != nil {
				return err
			}
		}
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func joinErrors(item, email string) string {
	switch {
	case item != "" && email != "":
		return item + "; email: " + email
	case email != "":
		return "email: " + email
	default:
		return item
	}
}
