package dto

import (
	"fmt"
	"time"

	"github.com/vsinha/batchplan/pkg/domain/entities"
)

// ControlMode selects how the weight budget of a plan is sized
type ControlMode int

const (
	MMQMultiplier ControlMode = iota
	TotalWeight
	TargetDaysCoverage
)

// String method for ControlMode enum
func (m ControlMode) String() string {
	switch m {
	case MMQMultiplier:
		return "mmq"
	case TotalWeight:
		return "total-weight"
	case TargetDaysCoverage:
		return "target-days"
	default:
		return "unknown"
	}
}

// ParseControlMode converts a mode name into a ControlMode
func ParseControlMode(s string) (ControlMode, error) {
	switch s {
	case "mmq", "mmq-multiplier":
		return MMQMultiplier, nil
	case "total-weight", "weight":
		return TotalWeight, nil
	case "target-days", "target-days-coverage":
		return TargetDaysCoverage, nil
	default:
		return MMQMultiplier, fmt.Errorf("unsupported control mode: %s", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (m ControlMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *ControlMode) UnmarshalText(text []byte) error {
	mode, err := ParseControlMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// IssueInfeasibleFixedAllocation marks a plan whose pinned variants exceed the budget
const IssueInfeasibleFixedAllocation = "InfeasibleFixedAllocation"

// SemiproductSnapshot is the semiproduct state the plan was computed against
type SemiproductSnapshot struct {
	Code  entities.ProductCode `json:"code"`
	Name  string               `json:"name"`
	Unit  string               `json:"unit"`
	Stock float64              `json:"stock"`
}

// VariantRecommendation is the planned quantity for one consuming product
type VariantRecommendation struct {
	Code            entities.ProductCode `json:"code"`
	Name            string               `json:"name"`
	Weight          float64              `json:"weight"`
	DailySales      float64              `json:"daily_sales"`
	CurrentStock    float64              `json:"current_stock"`
	MinimumQuantity float64              `json:"minimum_quantity"`
	SuggestedAmount float64              `json:"suggested_amount"`
	ConsumedWeight  float64              `json:"consumed_weight"`
	IsFixed         bool                 `json:"is_fixed"`
	IsOptimized     bool                 `json:"is_optimized"`
	CoverageDays    *float64             `json:"coverage_days,omitempty"`
}

// PlanningSummary aggregates a plan
type PlanningSummary struct {
	TotalWeightUsed      float64     `json:"total_weight_used"`
	TotalWeightAvailable float64     `json:"total_weight_available"`
	UtilizationPercent   float64     `json:"utilization_percent"`
	FixedCount           int         `json:"fixed_count"`
	OptimizedCount       int         `json:"optimized_count"`
	AverageCoverageDays  *float64    `json:"average_coverage_days,omitempty"`
	Mode                 ControlMode `json:"mode"`
	ModeValue            float64     `json:"mode_value"`
}

// PlanningIssue explains why a plan is not successful
type PlanningIssue struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Params  map[string]float64 `json:"params,omitempty"`
}

// PlanningResult contains the complete output of a planning run
type PlanningResult struct {
	RunID       string                  `json:"run_id"`
	PlannedAt   time.Time               `json:"planned_at"`
	Success     bool                    `json:"success"`
	Semiproduct SemiproductSnapshot     `json:"semiproduct"`
	Variants    []VariantRecommendation `json:"variants"`
	Summary     PlanningSummary         `json:"summary"`
	Issue       *PlanningIssue          `json:"issue,omitempty"`
}

// GetSummary returns a one-line description of the plan
func (r *PlanningResult) GetSummary() string {
	summary := fmt.Sprintf("%s: %.2f/%.2f used (%.2f%%), %d optimized, %d fixed",
		r.Semiproduct.Code,
		r.Summary.TotalWeightUsed,
		r.Summary.TotalWeightAvailable,
		r.Summary.UtilizationPercent,
		r.Summary.OptimizedCount,
		r.Summary.FixedCount)
	if r.Summary.AverageCoverageDays != nil {
		summary += fmt.Sprintf(", avg coverage %.1f days", *r.Summary.AverageCoverageDays)
	}
	if r.Issue != nil {
		summary += fmt.Sprintf(" [%s]", r.Issue.Code)
	}
	return summary
}
