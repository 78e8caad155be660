package export_test

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/recruitai/internal/export"
	"github.com/kiranshivaraju/recruitai/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleBatch() *models.Batch {
	return &models.Batch{
		ID:               uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Direction:        models.DirectionResumes,
		Status:           models.BatchStatusCompleted,
		MinimumScore:     70,
		MaxMissingSkills: 2,
		CreatedAt:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Items: []models.BatchItem{
			{
				Identifier:  "alice.pdf",
				Analysis:    models.AnalysisResult{Score: 90, MissingSkills: []string{"Kafka"}, Remarks: "Strong"},
				Acceptable:  true,
				IsBestMatch: true,
				EmailType:   models.EmailAcceptance,
				Email:       "Dear Alice",
			},
			{
				Identifier: "bob.docx",
				Analysis:   models.AnalysisResult{MissingSkills: []string{}, Remarks: "Analysis failed: boom"},
				Error:      "boom",
			},
		},
	}
}

func TestWriteBatch_Rows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteBatch(&buf, sampleBatch()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.ResultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Identifier", rows[0][1])
	assert.Equal(t, "alice.pdf", rows[1][1])
	assert.Equal(t, "90", rows[1][2])
	assert.Equal(t, "Kafka", rows[1][3])
	assert.Equal(t, "yes", rows[1][6])
	assert.Equal(t, "bob.docx", rows[2][1])
	assert.Equal(t, "boom", rows[2][9])
}

func TestWriteBatch_Summary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteBatch(&buf, sampleBatch()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	id, err := f.GetCellValue(export.SummarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", id)

	failed, err := f.GetCellValue(export.SummarySheet, "B7")
	require.NoError(t, err)
	assert.Equal(t, "1", failed)
}

func TestSaveBatch_AddsExtension(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report")
	path, err := export.SaveBatch(out, sampleBatch())
	require.NoError(t, err)
	assert.Equal(t, out+".xlsx", path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), export.ResultsSheet)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "batch-11111111-2222-3333-4444-555555555555.xlsx", export.Filename(sampleBatch()))
}
