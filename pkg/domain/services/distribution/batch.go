// Package distribution allocates a semiproduct weight budget across the
// packaged variants that consume it.
package distribution

import "math"

// Variant is one packaged product size produced from the semiproduct
type Variant struct {
	Code            string
	Weight          float64 // semiproduct consumed per produced unit
	DailySales      float64
	CurrentStock    float64
	IsFixed         bool
	FixedQuantity   *float64
	SuggestedAmount float64
}

// IsValid reports whether the variant can take part in optimization
func (v *Variant) IsValid() bool {
	return v.Weight > 0
}

// Fix pins the variant to an externally chosen quantity
func (v *Variant) Fix(quantity float64) {
	if quantity < 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		quantity = 0
	}
	q := quantity
	v.IsFixed = true
	v.FixedQuantity = &q
	v.SuggestedAmount = q
}

// UpstockTotal returns the projected coverage measure. The second value is
// false when the variant has no sales and coverage is undefined.
func (v *Variant) UpstockTotal() (float64, bool) {
	if v.DailySales <= 0 {
		return 0, false
	}
	return (v.CurrentStock + v.SuggestedAmount*v.Weight) / v.DailySales, true
}

// ConsumedWeight returns the semiproduct weight claimed by the suggestion
func (v *Variant) ConsumedWeight() float64 {
	if !v.IsValid() {
		return 0
	}
	return v.SuggestedAmount * v.Weight
}

// Batch is a single planning unit: a weight budget and the variants competing for it
type Batch struct {
	TotalWeight float64
	Variants    []*Variant
}

// NewBatch creates a batch over the given variants
func NewBatch(totalWeight float64, variants ...*Variant) *Batch {
	return &Batch{
		TotalWeight: totalWeight,
		Variants:    variants,
	}
}

// ValidVariants returns the variants with a positive weight, in order
func (b *Batch) ValidVariants() []*Variant {
	valid := make([]*Variant, 0, len(b.Variants))
	for _, v := range b.Variants {
		if v.IsValid() {
			valid = append(valid, v)
		}
	}
	return valid
}

// UsedWeight sums the weight consumed by all valid variants
func (b *Batch) UsedWeight() float64 {
	var used float64
	for _, v := range b.Variants {
		used += v.ConsumedWeight()
	}
	return used
}

// FixedWeight sums the weight consumed by fixed valid variants
func (b *Batch) FixedWeight() float64 {
	var fixed float64
	for _, v := range b.Variants {
		if v.IsFixed {
			fixed += v.ConsumedWeight()
		}
	}
	return fixed
}

// RemainingWeight returns the unallocated part of the budget
func (b *Batch) RemainingWeight() float64 {
	return b.TotalWeight - b.UsedWeight()
}

// MinWeight returns the smallest weight among valid variants, or 0 when there are none
func (b *Batch) MinWeight() float64 {
	var minWeight float64
	for _, v := range b.ValidVariants() {
		if minWeight == 0 || v.Weight < minWeight {
			minWeight = v.Weight
		}
	}
	return minWeight
}
