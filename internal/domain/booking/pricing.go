package booking

import (
	"fmt"
	"math"
)

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the total price in cents for the given parameters.
	Calculate(params PricingParams) (int64, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	UnitPriceCents int64
	PeopleCount    int
}

// PerPersonPricingStrategy charges the tour's per-person price for every seat.
type PerPersonPricingStrategy struct{}

// NewPerPersonPricingStrategy creates a new PerPersonPricingStrategy.
func NewPerPersonPricingStrategy() *PerPersonPricingStrategy {
	return &PerPersonPricingStrategy{}
}

// Calculate computes unit price × people count in cents.
func (s *PerPersonPricingStrategy) Calculate(params PricingParams) (int64, error) {
	if params.UnitPriceCents < 0 {
		return 0, fmt.Errorf("unit price cannot be negative")
	}
	if params.PeopleCount < 1 {
		return 0, fmt.Errorf("people count must be at least 1")
	}
	count := int64(params.PeopleCount)
	if params.UnitPriceCents > math.MaxInt64/count {
		return 0, fmt.Errorf("total price overflows: %d × %d", params.UnitPriceCents, count)
	}
	return params.UnitPriceCents * count, nil
}
