package distribution

import (
	"container/heap"
	"math"
	"sort"
)

// DefaultSalesThreshold is the daily sales level at or below which a variant
// has no reliable velocity signal and is left out of coverage balancing.
const DefaultSalesThreshold = 0.5

// epsilon absorbs float drift when checking whether a unit still fits the budget
const epsilon = 1e-9

// Optimizer distributes a batch weight budget across variants so that
// projected coverage is as even as possible. It holds no state between calls.
type Optimizer struct {
	salesThreshold float64
}

// NewOptimizer creates an optimizer with the default sales threshold
func NewOptimizer() *Optimizer {
	return &Optimizer{salesThreshold: DefaultSalesThreshold}
}

// NewOptimizerWithThreshold creates an optimizer with a custom sales threshold
func NewOptimizerWithThreshold(threshold float64) *Optimizer {
	if threshold < 0 {
		threshold = 0
	}
	return &Optimizer{salesThreshold: threshold}
}

// SalesThreshold returns the materiality threshold used for balancing
func (o *Optimizer) SalesThreshold() float64 {
	return o.salesThreshold
}

// IsBalanced reports whether the variant sells fast enough to be balanced
func (o *Optimizer) IsBalanced(v *Variant) bool {
	return v.DailySales > o.salesThreshold
}

// Optimize writes SuggestedAmount on every non-fixed valid variant of the batch.
// Fixed variants are left untouched but their weight is taken out of the
// budget first, and zero-weight variants end at zero. When balanceLowVelocity
// is set, variants without a sales signal absorb the budget the balanced
// variants could not use. A non-finite budget allocates nothing.
func (o *Optimizer) Optimize(batch *Batch, balanceLowVelocity bool) {
	if batch == nil {
		return
	}

	balanced, residual := o.partition(batch)

	if math.IsNaN(batch.TotalWeight) || math.IsInf(batch.TotalWeight, 0) {
		return
	}
	remaining := batch.TotalWeight - batch.FixedWeight()
	if remaining <= 0 {
		return
	}

	if len(balanced) > 0 {
		remaining = o.fill(balanced, remaining)
	}

	if balanceLowVelocity && len(residual) > 0 {
		spread(residual, remaining)
	}
}

// partition resets non-fixed suggestions and splits the optimizable variants
func (o *Optimizer) partition(batch *Batch) (balanced, residual []*Variant) {
	for _, v := range batch.Variants {
		if v.IsFixed {
			continue
		}
		v.SuggestedAmount = 0
		if !v.IsValid() {
			continue
		}
		if o.IsBalanced(v) {
			balanced = append(balanced, v)
		} else {
			residual = append(residual, v)
		}
	}
	return balanced, residual
}

// fill first lifts every variant below the common water level the budget can
// reach in one pass, then hands out what flooring left over one variant at a
// time: the least covered variant catches up with the runner-up, repeating
// until no eligible variant can afford another unit.
func (o *Optimizer) fill(variants []*Variant, remaining float64) float64 {
	queue := make(coverageQueue, 0, len(variants))
	for i, v := range variants {
		coverage, _ := v.UpstockTotal()
		queue = append(queue, coverageEntry{variant: v, coverage: coverage, order: i})
	}

	level := waterLevel(queue, remaining)
	for i := range queue {
		entry := &queue[i]
		v := entry.variant
		if level <= entry.coverage {
			continue
		}
		units := math.Floor((level - entry.coverage) * v.DailySales / v.Weight)
		units = math.Min(units, math.Floor((remaining+epsilon)/v.Weight))
		if units < 1 {
			continue
		}
		v.SuggestedAmount += units
		remaining -= units * v.Weight
		entry.coverage, _ = v.UpstockTotal()
	}
	heap.Init(&queue)

	for queue.Len() > 0 {
		top := &queue[0]
		v := top.variant

		affordable := math.Floor((remaining + epsilon) / v.Weight)
		if affordable < 1 {
			heap.Pop(&queue)
			continue
		}

		units := affordable
		if next, ok := queue.runnerUp(); ok {
			units = math.Min(unitsToReach(top.coverage, next, v.Weight/v.DailySales), affordable)
		}

		v.SuggestedAmount += units
		remaining -= units * v.Weight
		top.coverage, _ = v.UpstockTotal()
		heap.Fix(&queue, 0)
	}

	return math.Max(remaining, 0)
}

// waterLevel returns the coverage every entry below it would reach if the
// budget were poured in continuously. Raising coverage by one day costs
// DailySales of weight.
func waterLevel(entries coverageQueue, budget float64) float64 {
	if len(entries) == 0 {
		return 0
	}

	sorted := make(coverageQueue, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].coverage < sorted[j].coverage })

	level := sorted[0].coverage
	var rate float64
	for k := range sorted {
		rate += sorted[k].variant.DailySales
		if k == len(sorted)-1 {
			break
		}
		need := (sorted[k+1].coverage - level) * rate
		if need >= budget {
			break
		}
		budget -= need
		level = sorted[k+1].coverage
	}

	if rate <= 0 {
		return level
	}
	return level + budget/rate
}

// unitsToReach returns how many unit steps of size step it takes to move
// coverage from current up to target; at least one.
func unitsToReach(current, target, step float64) float64 {
	if target <= current || step <= 0 {
		return 1
	}
	return math.Max(1, math.Ceil((target-current)/step))
}

// spread hands the remaining budget to variants without a sales signal: an
// equal weight share each, then whatever is left to the cheapest variant first.
func spread(variants []*Variant, remaining float64) float64 {
	if remaining <= 0 {
		return 0
	}

	sorted := make([]*Variant, len(variants))
	copy(sorted, variants)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight < sorted[j].Weight
	})

	share := remaining / float64(len(sorted))
	for _, v := range sorted {
		units := math.Floor((share + epsilon) / v.Weight)
		if units <= 0 {
			continue
		}
		v.SuggestedAmount += units
		remaining -= units * v.Weight
	}

	for _, v := range sorted {
		units := math.Floor((remaining + epsilon) / v.Weight)
		if units <= 0 {
			continue
		}
		v.SuggestedAmount += units
		remaining -= units * v.Weight
	}

	return math.Max(remaining, 0)
}
