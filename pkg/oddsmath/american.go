package oddsmath

import (
	"fmt"
	"math"
)

// AmericanToDecimal converts American odds to a decimal payout multiplier
// American +150 → Decimal 2.50
// American -150 → Decimal 1.67
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}

	if american > 0 {
		// Positive odds: (american / 100) + 1
		return (float64(american) / 100.0) + 1.0, nil
	}

	// Negative odds: (100 / abs(american)) + 1
	return (100.0 / float64(-american)) + 1.0, nil
}

// DecimalToAmerican converts decimal odds to American odds
// Decimal 2.50 → American +150
// Decimal 1.67 → American -150
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal < 1.0 {
		return 0, fmt.Errorf("invalid decimal odds: must be >= 1.0")
	}

	if decimal >= 2.0 {
		// Positive American odds: (decimal - 1) * 100
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}

	// Negative American odds: -100 / (decimal - 1)
	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// ImpliedProbability converts American odds to vig-inclusive implied probability
// +200 → 0.3333
// -245 → 0.7101
func ImpliedProbability(american int) (float64, error) {
	decimal, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}

	return 1.0 / decimal, nil
}

// ProfitForWin returns the profit (excluding returned stake) of a winning
// $1 bet at the given American odds
// +140 → 1.40
// -150 → 0.6667
func ProfitForWin(american int) (float64, error) {
	decimal, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}

	return decimal - 1.0, nil
}

// ValidPrice reports whether a raw quoted price is usable.
// Zero and non-finite values signal a malformed source record.
func ValidPrice(price float64) bool {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return false
	}
	return price != 0
}
