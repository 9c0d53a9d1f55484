package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vsinha/batchplan/pkg/application/dto"
)

// Output file names written when an output directory is set
const (
	TextFile     = "plan.txt"
	JSONFile     = "plan.json"
	VariantsFile = "variants.csv"
)

// Config holds configuration for output generation
type Config struct {
	Format      string
	OutputDir   string
	Verbose     bool
	PlanningRun time.Duration
}

// Generate renders result to w in the configured format. When OutputDir is
// set the rendering is also saved there.
func Generate(w io.Writer, result *dto.PlanningResult, config Config) error {
	var (
		buf      bytes.Buffer
		filename string
	)

	switch config.Format {
	case "text", "":
		writeText(&buf, result, config)
		filename = TextFile
	case "json":
		if err := writeJSON(&buf, result); err != nil {
			return err
		}
		filename = JSONFile
	case "csv":
		if err := writeVariantsCSV(&buf, result.Variants); err != nil {
			return fmt.Errorf("failed to write variants CSV: %w", err)
		}
		filename = VariantsFile
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if config.OutputDir == "" {
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(config.OutputDir, filename)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if config.Verbose {
		fmt.Fprintf(w, "💾 Results saved to: %s\n", path)
	}

	return nil
}

// writeText creates human-readable text output
func writeText(w io.Writer, result *dto.PlanningResult, config Config) {
	summary := result.Summary

	fmt.Fprintf(w, "📊 Batch Plan: %s (%s)\n", result.Semiproduct.Code, result.Semiproduct.Name)
	fmt.Fprintf(w, "======================\n\n")

	fmt.Fprintf(w, "Mode: %s %g\n", summary.Mode, summary.ModeValue)
	fmt.Fprintf(w, "Semiproduct Stock: %g %s\n", result.Semiproduct.Stock, result.Semiproduct.Unit)
	fmt.Fprintf(w, "Weight Used: %.4f / %.4f (%.2f%%)\n",
		summary.TotalWeightUsed, summary.TotalWeightAvailable, summary.UtilizationPercent)
	fmt.Fprintf(w, "Variants: %d fixed, %d optimized\n", summary.FixedCount, summary.OptimizedCount)
	if summary.AverageCoverageDays != nil {
		fmt.Fprintf(w, "Average Coverage: %.2f days\n", *summary.AverageCoverageDays)
	}
	if config.Verbose {
		fmt.Fprintf(w, "Run: %s at %s\n", result.RunID, result.PlannedAt.Format(time.RFC3339))
		fmt.Fprintf(w, "Planning Time: %v\n", config.PlanningRun)
	}
	fmt.Fprintln(w)

	if result.Issue != nil {
		fmt.Fprintf(w, "⚠️  %s: %s\n", result.Issue.Code, result.Issue.Message)
		if deficit, ok := result.Issue.Params["deficit"]; ok {
			fmt.Fprintf(w, "Deficit: %.4f\n", deficit)
		}
		fmt.Fprintln(w)
	}

	if len(result.Variants) == 0 {
		return
	}

	fmt.Fprintf(w, "📋 Variants:\n")
	fmt.Fprintf(w, "%-15s %-8s %-10s %-10s %-10s %-12s %-10s %-8s\n",
		"Code", "Weight", "Daily", "Stock", "Suggested", "Consumed", "Coverage", "Status")
	fmt.Fprintf(w, "%-15s %-8s %-10s %-10s %-10s %-12s %-10s %-8s\n",
		"---------------", "--------", "----------", "----------", "----------", "------------", "----------", "--------")

	for _, v := range result.Variants {
		fmt.Fprintf(w, "%-15s %-8g %-10.2f %-10g %-10g %-12.4f %-10s %-8s\n",
			v.Code,
			v.Weight,
			v.DailySales,
			v.CurrentStock,
			v.SuggestedAmount,
			v.ConsumedWeight,
			formatCoverage(v.CoverageDays),
			status(v))
	}
	fmt.Fprintln(w)
}

// writeJSON creates indented JSON output
func writeJSON(w io.Writer, result *dto.PlanningResult) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

// writeVariantsCSV writes one row per variant recommendation
func writeVariantsCSV(w io.Writer, variants []dto.VariantRecommendation) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{
		"code", "name", "weight", "daily_sales", "current_stock", "minimum_quantity",
		"suggested_amount", "consumed_weight", "coverage_days", "is_fixed", "is_optimized",
	}); err != nil {
		return err
	}

	for _, v := range variants {
		coverage := ""
		if v.CoverageDays != nil {
			coverage = formatFloat(*v.CoverageDays)
		}
		if err := writer.Write([]string{
			string(v.Code),
			v.Name,
			formatFloat(v.Weight),
			formatFloat(v.DailySales),
			formatFloat(v.CurrentStock),
			formatFloat(v.MinimumQuantity),
			formatFloat(v.SuggestedAmount),
			formatFloat(v.ConsumedWeight),
			coverage,
			strconv.FormatBool(v.IsFixed),
			strconv.FormatBool(v.IsOptimized),
		}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatCoverage(days *float64) string {
	if days == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *days)
}

func status(v dto.VariantRecommendation) string {
	switch {
	case v.IsFixed:
		return "fixed"
	case v.IsOptimized:
		return "optimized"
	default:
		return "skipped"
	}
}
