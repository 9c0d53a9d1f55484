package planning

import (
	"errors"
	"fmt"
)

var (
	// ErrSemiproductNotFound is returned when the requested semiproduct is not in the catalog
	ErrSemiproductNotFound = errors.New("semiproduct not found")
	// ErrNoProductsFound is returned when no manufacture template consumes the semiproduct
	ErrNoProductsFound = errors.New("no products found for semiproduct")
	// ErrConvergenceFailed is returned when the target coverage search gives up
	ErrConvergenceFailed = errors.New("target coverage search did not converge")
)

// ConvergenceError carries the best candidate a failed coverage search found
type ConvergenceError struct {
	TargetDays   float64
	BestBudget   float64
	BestCoverage float64
	Iterations   int
	Reason       string
}

func (e *ConvergenceError) Error() string {
	msg := fmt.Sprintf("%s: target %.2f days, best %.2f days at budget %.4f after %d iterations",
		ErrConvergenceFailed, e.TargetDays, e.BestCoverage, e.BestBudget, e.Iterations)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// Unwrap lets errors.Is match ErrConvergenceFailed
func (e *ConvergenceError) Unwrap() error {
	return ErrConvergenceFailed
}
