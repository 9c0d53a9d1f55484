package events

import (
	"time"

	"github.com/vsinha/batchplan/pkg/domain/entities"
)

const (
	PlanCompletedEvent  = "plan.completed"
	PlanInfeasibleEvent = "plan.infeasible"
	PlanFailedEvent     = "plan.failed"
)

type PlanCompleted struct {
	RunID                string   `json:"run_id"`
	Mode                 string   `json:"mode"`
	ModeValue            float64  `json:"mode_value"`
	TotalWeightUsed      float64  `json:"total_weight_used"`
	TotalWeightAvailable float64  `json:"total_weight_available"`
	AverageCoverageDays  *float64 `json:"average_coverage_days,omitempty"`
	FixedCount           int      `json:"fixed_count"`
	OptimizedCount       int      `json:"optimized_count"`
}

type PlanInfeasible struct {
	RunID       string  `json:"run_id"`
	Mode        string  `json:"mode"`
	ModeValue   float64 `json:"mode_value"`
	FixedWeight float64 `json:"fixed_weight"`
	Deficit     float64 `json:"deficit"`
}

type PlanFailed struct {
	Mode      string  `json:"mode"`
	ModeValue float64 `json:"mode_value"`
	Error     string  `json:"error"`
}

func NewPlanCompletedEvent(semiproduct entities.ProductCode, payload PlanCompleted, at time.Time) Event {
	return NewEvent(PlanCompletedEvent, string(semiproduct), payload, at)
}

func NewPlanInfeasibleEvent(semiproduct entities.ProductCode, payload PlanInfeasible, at time.Time) Event {
	return NewEvent(PlanInfeasibleEvent, string(semiproduct), payload, at)
}

func NewPlanFailedEvent(semiproduct entities.ProductCode, payload PlanFailed, at time.Time) Event {
	return NewEvent(PlanFailedEvent, string(semiproduct), payload, at)
}
