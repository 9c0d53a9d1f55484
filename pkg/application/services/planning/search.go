package planning

import (
	"context"
	"math"

	"github.com/vsinha/batchplan/pkg/domain/services/distribution"
)

// coverageCandidate is one evaluated budget of the target coverage search
type coverageCandidate struct {
	budget   float64
	coverage float64
}

// searchTargetCoverage looks for the optimizer budget whose achieved average
// coverage lands within tolerance of targetDays. It brackets by doubling and
// then bisects, treating coverage as monotonic in the budget. The batch is
// left optimized at the returned budget.
func (o *Orchestrator) searchTargetCoverage(
	ctx context.Context,
	batch *distribution.Batch,
	all []*distribution.Variant,
	targetDays float64,
	balance bool,
) (float64, error) {
	tolerance := o.options.TargetToleranceDays
	maxIterations := o.options.TargetMaxIterations

	measure := func(budget float64) (float64, bool) {
		batch.TotalWeight = budget
		o.optimizer.Optimize(batch, balance)
		return o.optimizer.AverageCoverage(all)
	}

	start, ok := measure(0)
	if !ok {
		return 0, &ConvergenceError{
			TargetDays: targetDays,
			Reason:     "no variant sells above the velocity threshold",
		}
	}
	if start >= targetDays-tolerance {
		// Stock already covers the target; nothing needs producing.
		o.logger.Debug("target coverage already met", "coverage", start, "target", targetDays)
		return 0, nil
	}

	best := coverageCandidate{budget: 0, coverage: start}
	track := func(c coverageCandidate) {
		if math.Abs(c.coverage-targetDays) < math.Abs(best.coverage-targetDays) {
			best = c
		}
	}
	fail := func(iterations int, reason string) error {
		// Leave the batch at the closest candidate so callers can inspect it.
		measure(best.budget)
		return &ConvergenceError{
			TargetDays:   targetDays,
			BestBudget:   best.budget,
			BestCoverage: best.coverage,
			Iterations:   iterations,
			Reason:       reason,
		}
	}

	lo, hi := 0.0, upperBudgetGuess(batch, o.optimizer, targetDays)
	iterations := 0

	// Bracket: grow hi until it overshoots the target.
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if iterations >= maxIterations {
			return 0, fail(iterations, "iteration cap reached while bracketing")
		}
		iterations++

		coverage, _ := measure(hi)
		track(coverageCandidate{budget: hi, coverage: coverage})
		o.logger.Debug("coverage search bracket", "iteration", iterations, "budget", hi, "coverage", coverage)

		if math.Abs(coverage-targetDays) <= tolerance {
			return hi, nil
		}
		if coverage > targetDays {
			break
		}
		lo = hi
		hi *= 2
	}

	// Bisect between the last undershoot and the overshoot.
	for iterations < maxIterations {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		iterations++

		mid := lo + (hi-lo)/2
		coverage, _ := measure(mid)
		track(coverageCandidate{budget: mid, coverage: coverage})
		o.logger.Debug("coverage search bisect", "iteration", iterations, "budget", mid, "coverage", coverage)

		if math.Abs(coverage-targetDays) <= tolerance {
			return mid, nil
		}
		if coverage < targetDays {
			lo = mid
		} else {
			hi = mid
		}
	}

	return 0, fail(iterations, "iteration cap reached")
}

// upperBudgetGuess returns the weight each balanced free variant needs to
// reach targetDays on its own, plus one unit of the heaviest variant.
func upperBudgetGuess(batch *distribution.Batch, optimizer *distribution.Optimizer, targetDays float64) float64 {
	var needed, heaviest float64
	for _, v := range batch.ValidVariants() {
		heaviest = math.Max(heaviest, v.Weight)
		if !optimizer.IsBalanced(v) {
			continue
		}
		needed += math.Max(0, targetDays*v.DailySales-v.CurrentStock)
	}
	guess := needed + heaviest
	if guess <= 0 {
		return 1
	}
	return guess
}
