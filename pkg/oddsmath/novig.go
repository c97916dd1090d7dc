package oddsmath

import "fmt"

// Overround returns the bookmaker margin baked into a two-way market.
// Overround = prob1 + prob2 - 1.0 (typically > 0)
//
// Example:
// Side A: -110 (52.38% implied) | Side B: -110 (52.38% implied)
// Overround: 0.0476 (4.76% vig)
func Overround(prob1, prob2 float64) (float64, error) {
	if prob1 <= 0 || prob1 >= 1 || prob2 <= 0 || prob2 >= 1 {
		return 0, fmt.Errorf("probabilities must be between 0 and 1")
	}

	return prob1 + prob2 - 1.0, nil
}

// RemoveVigMultiplicative removes vig from a two-way market using the
// multiplicative method: normalize each implied probability by their sum so
// the pair sums to 1.0.
//
// Calibration buckets are computed vig-inclusive; this is the de-margined
// extension point and is not applied by default.
func RemoveVigMultiplicative(prob1, prob2 float64) (fair1, fair2 float64, err error) {
	if prob1 <= 0 || prob1 >= 1 || prob2 <= 0 || prob2 >= 1 {
		return 0, 0, fmt.Errorf("probabilities must be between 0 and 1")
	}

	totalProb := prob1 + prob2

	if totalProb <= 1.0 {
		return 0, 0, fmt.Errorf("no vig detected: probabilities sum to <= 1.0")
	}

	fair1 = prob1 / totalProb
	fair2 = prob2 / totalProb

	return fair1, fair2, nil
}
