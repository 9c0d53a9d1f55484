package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/batchplan/pkg/application/dto"
	"github.com/vsinha/batchplan/pkg/infrastructure/repositories/csv"
)

// writeDataDir creates a small jam scenario whose sales end on 2025-06-30
func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		csv.CatalogFile: `code,name,kind,unit,stock,minimum_manufacture_quantity
JAM_BASE,Jam base,Semiproduct,kg,500,
JAM_250,Jam 250g,Product,pcs,40,100
JAM_500,Jam 500g,Product,pcs,30,50
`,
		csv.TemplatesFile: `product_code,ingredient_code,amount
JAM_250,JAM_BASE,0.25
JAM_500,JAM_BASE,0.5
`,
		csv.SalesFile: `code,date,amount_b2b,amount_b2c
JAM_250,2025-06-29,10,6
JAM_250,2025-06-30,10,6
JAM_500,2025-06-29,4,4
JAM_500,2025-06-30,4,4
`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	cmd := NewRootCommand("test")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPlanCommand_JSON(t *testing.T) {
	dataDir := writeDataDir(t)

	out, err := runCommand(t, "plan",
		"--data", dataDir,
		"--semiproduct", "JAM_BASE",
		"--mode", "total-weight",
		"--value", "50",
		"--from", "2025-06-29",
		"--to", "2025-06-30",
		"--fix", "JAM_500=10",
		"--format", "json")
	require.NoError(t, err)

	var result dto.PlanningResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 50.0, result.Summary.TotalWeightAvailable)
	require.Len(t, result.Variants, 2)
	assert.InDelta(t, 16.0, result.Variants[0].DailySales, 1e-9)
	assert.Equal(t, 10.0, result.Variants[1].SuggestedAmount)
	assert.True(t, result.Variants[1].IsFixed)
	// 45 weight left for JAM_250 at 0.25 each
	assert.Equal(t, 180.0, result.Variants[0].SuggestedAmount)
}

func TestPlanCommand_InfeasibleReturnsPlanFailedError(t *testing.T) {
	dataDir := writeDataDir(t)

	out, err := runCommand(t, "plan",
		"--data", dataDir,
		"-s", "JAM_BASE",
		"--value", "10",
		"--fix", "JAM_500=40")

	var failed *PlanFailedError
	require.True(t, errors.As(err, &failed), "expected PlanFailedError, got %v", err)
	assert.Equal(t, dto.IssueInfeasibleFixedAllocation, failed.Issue.Code)
	assert.Contains(t, out, "Deficit: 10.0000")
}

func TestPlanCommand_Validation(t *testing.T) {
	dataDir := writeDataDir(t)

	testCases := []struct {
		name      string
		args      []string
		wantError string
	}{
		{"missing semiproduct", []string{"plan", "--data", dataDir, "--value", "1"}, `required flag(s) "semiproduct" not set`},
		{"bad mode", []string{"plan", "--data", dataDir, "-s", "JAM_BASE", "-m", "fast"}, "unsupported control mode"},
		{"bad fix", []string{"plan", "--data", dataDir, "-s", "JAM_BASE", "--fix", "JAM_500"}, "expected CODE=QTY"},
		{"NaN value", []string{"plan", "--data", dataDir, "-s", "JAM_BASE", "--value", "NaN"}, "must be a finite number"},
		{"infinite fix", []string{"plan", "--data", dataDir, "-s", "JAM_BASE", "--value", "1", "--fix", "JAM_500=Inf"}, "must be a finite number"},
		{"mmq not positive", []string{"plan", "--data", dataDir, "-s", "JAM_BASE", "-m", "mmq"}, "MMQ multiplier must be positive"},
		{"unknown storage", []string{"plan", "--storage", "redis", "-s", "JAM_BASE", "--value", "1"}, "unknown storage driver"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCommand(t, tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantError)
		})
	}
}

func TestImportThenPlanFromSQLite(t *testing.T) {
	dataDir := writeDataDir(t)
	dbPath := filepath.Join(t.TempDir(), "batchplan.db")

	out, err := runCommand(t, "import", "--data", dataDir, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog Items: 3")
	assert.Contains(t, out, "Sales Records: 4")

	out, err = runCommand(t, "plan",
		"--storage", "sqlite",
		"--db", dbPath,
		"-s", "JAM_BASE",
		"-m", "mmq",
		"--value", "1",
		"-f", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "code,name,weight")
	assert.Contains(t, out, "JAM_250")
}

func TestParseFixed(t *testing.T) {
	fixed, err := parseFixed([]string{"A=10", " B = 2.5 "})
	require.NoError(t, err)
	assert.Equal(t, 10.0, fixed["A"])
	assert.Equal(t, 2.5, fixed["B"])

	_, err = parseFixed([]string{"A=1", "A=2"})
	assert.ErrorContains(t, err, "fixed more than once")

	_, err = parseFixed([]string{"A=lots"})
	assert.ErrorContains(t, err, "invalid quantity")
}

func TestImportCommand_RejectsTemplateCycle(t *testing.T) {
	dataDir := writeDataDir(t)
	cyclic := `product_code,ingredient_code,amount
JAM_250,JAM_BASE,0.25
JAM_250,JAM_500,1
JAM_500,JAM_250,2
`
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, csv.TemplatesFile), []byte(cyclic), 0o644))

	_, err := runCommand(t, "import", "--data", dataDir, "--db", filepath.Join(t.TempDir(), "batchplan.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template cycle detected")
}
