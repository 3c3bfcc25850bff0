// Package money holds the rounding rules shared by every billed amount.
package money

import "github.com/shopspring/decimal"

// Round rounds v to places decimals, half away from zero.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Round2 rounds a monetary or energy value to cents.
func Round2(v float64) float64 { return Round(v, 2) }

// Sum adds values exactly and returns the total rounded to cents.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Round(2).Float64()
	return f
}
