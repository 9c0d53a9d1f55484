package entities

import (
	"fmt"
	"time"
)

// SalesRecord represents units sold of a product on a given day
type SalesRecord struct {
	Date      time.Time
	AmountB2B float64
	AmountB2C float64
}

// NewSalesRecord creates a validated SalesRecord
func NewSalesRecord(date time.Time, amountB2B, amountB2C float64) (*SalesRecord, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("sales date cannot be empty")
	}
	if amountB2B < 0 {
		return nil, fmt.Errorf("B2B amount cannot be negative, got %g", amountB2B)
	}
	if amountB2C < 0 {
		return nil, fmt.Errorf("B2C amount cannot be negative, got %g", amountB2C)
	}

	return &SalesRecord{
		Date:      date,
		AmountB2B: amountB2B,
		AmountB2C: amountB2C,
	}, nil
}

// Total returns the combined B2B and B2C amount
func (s SalesRecord) Total() float64 {
	return s.AmountB2B + s.AmountB2C
}
