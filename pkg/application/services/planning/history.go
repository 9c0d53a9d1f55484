package planning

import (
	"errors"

	"github.com/vsinha/batchplan/pkg/application/dto"
	"github.com/vsinha/batchplan/pkg/infrastructure/events"
)

// record appends the outcome of a plan to the event store, if one is set.
// Requests for unknown semiproducts are not recorded.
func (o *Orchestrator) record(req PlanningRequest, result *dto.PlanningResult, planErr error) {
	if o.eventStore == nil || errors.Is(planErr, ErrSemiproductNotFound) {
		return
	}

	var event events.Event
	switch {
	case planErr != nil:
		event = events.NewPlanFailedEvent(req.SemiproductCode, events.PlanFailed{
			Mode:      req.Mode.String(),
			ModeValue: req.Value,
			Error:     planErr.Error(),
		}, o.now())

	case !result.Success:
		event = events.NewPlanInfeasibleEvent(req.SemiproductCode, events.PlanInfeasible{
			RunID:       result.RunID,
			Mode:        req.Mode.String(),
			ModeValue:   req.Value,
			FixedWeight: result.Issue.Params["fixed_weight"],
			Deficit:     result.Issue.Params["deficit"],
		}, result.PlannedAt)

	default:
		event = events.NewPlanCompletedEvent(req.SemiproductCode, events.PlanCompleted{
			RunID:                result.RunID,
			Mode:                 req.Mode.String(),
			ModeValue:            req.Value,
			TotalWeightUsed:      result.Summary.TotalWeightUsed,
			TotalWeightAvailable: result.Summary.TotalWeightAvailable,
			AverageCoverageDays:  result.Summary.AverageCoverageDays,
			FixedCount:           result.Summary.FixedCount,
			OptimizedCount:       result.Summary.OptimizedCount,
		}, result.PlannedAt)
	}

	if err := o.eventStore.AppendEvent(string(req.SemiproductCode), event); err != nil {
		o.logger.Warn("failed to record plan event",
			"semiproduct", req.SemiproductCode,
			"event", event.Type(),
			"error", err)
	}
}
