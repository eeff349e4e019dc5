package booking

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the total price for the given parameters.
	Calculate(params PricingParams) (decimal.Decimal, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	PricePerNight decimal.Decimal
	Stay          Stay
}

// StandardPricingStrategy charges the room's nightly rate for every night of the stay.
type StandardPricingStrategy struct{}

// NewStandardPricingStrategy creates a new StandardPricingStrategy.
func NewStandardPricingStrategy() *StandardPricingStrategy {
	return &StandardPricingStrategy{}
}

// Calculate returns nights × price_per_night, rounded to two decimal places.
func (s *StandardPricingStrategy) Calculate(params PricingParams) (decimal.Decimal, error) {
	if !params.PricePerNight.IsPositive() {
		return decimal.Zero, fmt.Errorf("price per night must be positive")
	}
	nights := params.Stay.Nights()
	if nights < 1 {
		return decimal.Zero, fmt.Errorf("stay must be at least one night")
	}
	return params.PricePerNight.Mul(decimal.NewFromInt(int64(nights))).Round(2), nil
}
