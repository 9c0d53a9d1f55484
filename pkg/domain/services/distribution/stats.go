package distribution

import "math"

// BalancedCoverage returns UpstockTotal for every valid variant selling above
// the optimizer's threshold, in batch order. Fixed variants are included.
func (o *Optimizer) BalancedCoverage(variants []*Variant) []float64 {
	values := make([]float64, 0, len(variants))
	for _, v := range variants {
		if !v.IsValid() || !o.IsBalanced(v) {
			continue
		}
		coverage, _ := v.UpstockTotal()
		values = append(values, coverage)
	}
	return values
}

// AverageCoverage returns the mean balanced coverage, false when no variant qualifies
func (o *Optimizer) AverageCoverage(variants []*Variant) (float64, bool) {
	values := o.BalancedCoverage(variants)
	if len(values) == 0 {
		return 0, false
	}
	return Mean(values), true
}

// Mean returns the arithmetic mean, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation, 0 for fewer than two values
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}
