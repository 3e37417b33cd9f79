// Package money does amount arithmetic in integer minor units.
package money

import "math"

// ToCents converts a two-decimal amount to minor units, rounding half away
// from zero.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// Round2 rounds to two decimals, half away from zero.
func Round2(amount float64) float64 {
	return FromCents(ToCents(amount))
}

// Share splits total across n parts and returns one part, rounded half up to
// the cent. n <= 0 yields 0.
func Share(totalCents int64, n int) int64 {
	if n <= 0 {
		return 0
	}
	div := int64(n)
	q, r := totalCents/div, totalCents%div
	if r < 0 {
		r = -r
	}
	if 2*r >= div {
		if totalCents >= 0 {
			q++
		} else {
			q--
		}
	}
	return q
}
