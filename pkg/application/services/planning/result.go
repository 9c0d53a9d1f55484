package planning

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/batchplan/pkg/application/dto"
	"github.com/vsinha/batchplan/pkg/domain/entities"
	"github.com/vsinha/batchplan/pkg/domain/services/distribution"
)

// reportPrecision is the number of decimals kept for percentages and coverage days
const reportPrecision = 2

// buildResult assembles the response from the planned variants
func (o *Orchestrator) buildResult(
	req PlanningRequest,
	semiproduct *entities.CatalogItem,
	planned []*plannedVariant,
	totalWeight float64,
	issue *dto.PlanningIssue,
) *dto.PlanningResult {
	result := &dto.PlanningResult{
		RunID:     newRunID(),
		PlannedAt: o.now(),
		Success:   issue == nil,
		Semiproduct: dto.SemiproductSnapshot{
			Code:  semiproduct.Code,
			Name:  semiproduct.Name,
			Unit:  semiproduct.Unit,
			Stock: semiproduct.Stock,
		},
		Variants: make([]dto.VariantRecommendation, 0, len(planned)),
		Issue:    issue,
	}

	var used float64
	for _, pv := range planned {
		rec := o.recommendation(pv)
		used += rec.ConsumedWeight
		if rec.IsFixed {
			result.Summary.FixedCount++
		}
		if rec.IsOptimized {
			result.Summary.OptimizedCount++
		}
		result.Variants = append(result.Variants, rec)
	}

	result.Summary.TotalWeightUsed = used
	result.Summary.TotalWeightAvailable = totalWeight
	result.Summary.UtilizationPercent = utilization(used, totalWeight)
	result.Summary.Mode = req.Mode
	result.Summary.ModeValue = req.Value

	variants := make([]*distribution.Variant, 0, len(planned))
	for _, pv := range planned {
		variants = append(variants, pv.variant)
	}
	if avg, ok := o.optimizer.AverageCoverage(variants); ok {
		rounded := round(avg)
		result.Summary.AverageCoverageDays = &rounded
	}

	return result
}

// recommendation converts a planned variant into its response form
func (o *Orchestrator) recommendation(pv *plannedVariant) dto.VariantRecommendation {
	v := pv.variant
	rec := dto.VariantRecommendation{
		Code:            pv.item.Code,
		Name:            pv.item.Name,
		Weight:          v.Weight,
		DailySales:      v.DailySales,
		CurrentStock:    v.CurrentStock,
		MinimumQuantity: pv.item.MinimumManufactureQuantity,
		SuggestedAmount: v.SuggestedAmount,
		ConsumedWeight:  v.ConsumedWeight(),
		IsFixed:         v.IsFixed,
		IsOptimized:     !v.IsFixed && v.IsValid(),
	}
	if coverage, ok := v.UpstockTotal(); ok {
		rounded := round(coverage)
		rec.CoverageDays = &rounded
	}
	return rec
}

// utilization returns used as a percentage of available
func utilization(used, available float64) float64 {
	if available <= 0 {
		return 0
	}
	return decimal.NewFromFloat(used).
		Div(decimal.NewFromFloat(available)).
		Mul(decimal.NewFromInt(100)).
		Round(reportPrecision).
		InexactFloat64()
}

func round(value float64) float64 {
	return decimal.NewFromFloat(value).Round(reportPrecision).InexactFloat64()
}
