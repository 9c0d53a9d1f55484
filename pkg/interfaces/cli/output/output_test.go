package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/batchplan/pkg/application/dto"
)

func sampleResult() *dto.PlanningResult {
	coverage := 12.5
	average := 12.5
	return &dto.PlanningResult{
		RunID:     "run-1",
		PlannedAt: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC),
		Success:   true,
		Semiproduct: dto.SemiproductSnapshot{
			Code: "JAM_BASE", Name: "Jam base", Unit: "kg", Stock: 500,
		},
		Variants: []dto.VariantRecommendation{
			{
				Code: "JAM_250", Name: "Jam 250g", Weight: 0.25, DailySales: 4,
				CurrentStock: 10, SuggestedAmount: 160, ConsumedWeight: 40,
				IsOptimized: true, CoverageDays: &coverage,
			},
			{
				Code: "JAM_500", Name: "Jam 500g", Weight: 0.5,
				SuggestedAmount: 20, ConsumedWeight: 10, IsFixed: true,
			},
		},
		Summary: dto.PlanningSummary{
			TotalWeightUsed:      50,
			TotalWeightAvailable: 50,
			UtilizationPercent:   100,
			FixedCount:           1,
			OptimizedCount:       1,
			AverageCoverageDays:  &average,
			Mode:                 dto.TotalWeight,
			ModeValue:            50,
		},
	}
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, sampleResult(), Config{Format: "text"}))

	out := buf.String()
	assert.Contains(t, out, "Batch Plan: JAM_BASE")
	assert.Contains(t, out, "Mode: total-weight 50")
	assert.Contains(t, out, "(100.00%)")
	assert.Contains(t, out, "optimized")
	assert.Contains(t, out, "fixed")
	assert.NotContains(t, out, "⚠️")
}

func TestGenerate_TextReportsIssue(t *testing.T) {
	result := sampleResult()
	result.Success = false
	result.Issue = &dto.PlanningIssue{
		Code:    dto.IssueInfeasibleFixedAllocation,
		Message: "fixed variants need more than available",
		Params:  map[string]float64{"deficit": 5000},
	}

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, result, Config{Format: "text"}))
	assert.Contains(t, buf.String(), dto.IssueInfeasibleFixedAllocation)
	assert.Contains(t, buf.String(), "Deficit: 5000.0000")
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, sampleResult(), Config{Format: "json"}))

	var decoded dto.PlanningResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, dto.TotalWeight, decoded.Summary.Mode)
	assert.Len(t, decoded.Variants, 2)
	assert.Nil(t, decoded.Variants[1].CoverageDays)
}

func TestGenerate_CSVSavedToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, sampleResult(), Config{Format: "csv", OutputDir: dir}))

	data, err := os.ReadFile(filepath.Join(dir, VariantsFile))
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(data))

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "code", rows[0][0])
	assert.Equal(t, []string{"JAM_250", "0.25", "12.5"}, []string{rows[1][0], rows[1][2], rows[1][8]})
	assert.Equal(t, "", rows[2][8])
	assert.Equal(t, "true", rows[2][9])
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	err := Generate(&bytes.Buffer{}, sampleResult(), Config{Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
