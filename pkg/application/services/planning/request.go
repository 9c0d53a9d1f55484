package planning

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vsinha/batchplan/pkg/application/dto"
	"github.com/vsinha/batchplan/pkg/domain/entities"
)

// SalesWindow bounds the sales history used to estimate velocity
type SalesWindow struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether no window was requested
func (w SalesWindow) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Days returns the number of calendar days covered, both ends included.
// Never less than one.
func (w SalesWindow) Days() float64 {
	days := math.Round(w.To.Sub(w.From).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// truncateDay returns midnight UTC of the day t falls on
func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PlanningRequest describes one planning run
type PlanningRequest struct {
	SemiproductCode entities.ProductCode
	Mode            dto.ControlMode
	Value           float64
	FixedQuantities map[entities.ProductCode]float64
	Window          SalesWindow
	// BalanceLowVelocity overrides the configured default when set
	BalanceLowVelocity *bool
}

// Validate checks the request ranges callers are expected to enforce before Plan
func (r PlanningRequest) Validate() error {
	var errs []error

	if r.SemiproductCode == "" {
		errs = append(errs, errors.New("semiproduct code cannot be empty"))
	}

	finite := isFinite(r.Value)
	if !finite {
		errs = append(errs, fmt.Errorf("%s value must be a finite number, got %g", r.Mode, r.Value))
	}

	switch r.Mode {
	case dto.MMQMultiplier:
		if finite && r.Value <= 0 {
			errs = append(errs, fmt.Errorf("MMQ multiplier must be positive, got %g", r.Value))
		}
	case dto.TotalWeight:
		if finite && r.Value < 0 {
			errs = append(errs, fmt.Errorf("total weight cannot be negative, got %g", r.Value))
		}
	case dto.TargetDaysCoverage:
		if finite && r.Value <= 0 {
			errs = append(errs, fmt.Errorf("target days coverage must be positive, got %g", r.Value))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported control mode: %d", r.Mode))
	}

	for code, qty := range r.FixedQuantities {
		switch {
		case !isFinite(qty):
			errs = append(errs, fmt.Errorf("fixed quantity for %s must be a finite number, got %g", code, qty))
		case qty < 0:
			errs = append(errs, fmt.Errorf("fixed quantity for %s cannot be negative, got %g", code, qty))
		}
	}

	if !r.Window.From.IsZero() && !r.Window.To.IsZero() && r.Window.From.After(r.Window.To) {
		errs = append(errs, fmt.Errorf("sales window start %s is after end %s",
			r.Window.From.Format(time.DateOnly), r.Window.To.Format(time.DateOnly)))
	}

	return errors.Join(errs...)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ParseSalesWindow builds a window from optional YYYY-MM-DD bounds
func ParseSalesWindow(from, to string) (SalesWindow, error) {
	var window SalesWindow
	if from != "" {
		parsed, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return window, fmt.Errorf("invalid from date %q (expected YYYY-MM-DD)", from)
		}
		window.From = parsed
	}
	if to != "" {
		parsed, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return window, fmt.Errorf("invalid to date %q (expected YYYY-MM-DD)", to)
		}
		window.To = parsed
	}
	return window, nil
}
