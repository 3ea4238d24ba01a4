package services

import (
	"catalog-service/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PriceAfterDiscount applies d to price and rounds to cents. Unrecognized
// discount kinds leave the price unchanged.
func PriceAfterDiscount(price float64, d models.Discount) float64 {
	p := decimal.NewFromFloat(price)
	amount := decimal.NewFromFloat(d.Amount)

	switch d.Kind {
	case models.DiscountPercentage:
		p = p.Mul(decimal.NewFromInt(1).Sub(amount.Div(hundred)))
	case models.DiscountFixed:
		p = p.Sub(amount)
	}

	return p.Round(2).InexactFloat64()
}

// validateDiscount rejects discounts that would make the price meaningless.
func validateDiscount(price float64, d models.Discount) error {
	switch d.Kind {
	case models.DiscountPercentage:
		if d.Amount > 100 {
			return ErrInvalidDiscount.Wrap("Percentage discount cannot exceed 100", nil)
		}
	case models.DiscountFixed:
		if d.Amount > price {
			return ErrInvalidDiscount.Wrap("Fixed discount cannot exceed the price", nil)
		}
	}
	return nil
}
