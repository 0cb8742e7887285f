// Package numx holds numeric helpers for the serialization boundary.
package numx

import "math"

// Round1 rounds to one decimal place. Applied to every float surfaced
// through the API so 32-bit float artifacts never leak to consumers.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 rounds to two decimal places (speech rate, pitch).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
