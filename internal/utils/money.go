package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundToDecimalPrecision truncates the quantity to the given number of
// decimal places. Truncation, not rounding, so a buyer can never be charged
// for more than the balance covers.
func RoundToDecimalPrecision(quantity float64, decimalPrecision int) float64 {
	multiplier := math.Pow10(decimalPrecision)

	return math.Floor(quantity*multiplier) / multiplier
}

// RoundPrice rounds a price to the given number of decimal places,
// half up, the way quotes are displayed.
func RoundPrice(price float64, decimalPrecision int) float64 {
	rounded, _ := decimal.NewFromFloat(price).Round(int32(decimalPrecision)).Float64()

	return rounded
}

// MulAmount multiplies shares by price using decimal arithmetic and returns
// the float result. Used anywhere cash moves, to avoid drifting cents.
func MulAmount(shares, price float64) float64 {
	amount, _ := decimal.NewFromFloat(shares).Mul(decimal.NewFromFloat(price)).Float64()

	return amount
}

// WeightedAverage returns the share weighted mean of two price lots.
func WeightedAverage(oldShares, oldPrice, newShares, newPrice float64) float64 {
	totalShares := decimal.NewFromFloat(oldShares).Add(decimal.NewFromFloat(newShares))
	if totalShares.IsZero() {
		return 0
	}

	oldAmount := decimal.NewFromFloat(oldShares).Mul(decimal.NewFromFloat(oldPrice))
	newAmount := decimal.NewFromFloat(newShares).Mul(decimal.NewFromFloat(newPrice))
	avg, _ := oldAmount.Add(newAmount).Div(totalShares).Float64()

	return avg
}
